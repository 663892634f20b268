package pagefilter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		name       string
		geom       PageGeometry
		placements []ImagePlacement
		want       Decision
		reason     Reason
	}{
		{
			name: "landscape without images",
			geom: PageGeometry{Width: 800, Height: 600},
			want: Drop, reason: ReasonLandscape,
		},
		{
			name:       "landscape with small image",
			geom:       PageGeometry{Width: 800, Height: 600},
			placements: []ImagePlacement{{X0: 0, Y0: 0, X1: 10, Y1: 10}},
			want:       Drop, reason: ReasonLandscape,
		},
		{
			name:       "portrait with 90 percent coverage",
			geom:       portrait(),
			placements: []ImagePlacement{{X0: 0, Y0: 0, X1: 600, Y1: 720}},
			want:       Drop, reason: ReasonCoverage,
		},
		{
			name:       "portrait at exactly 85 percent is kept",
			geom:       portrait(),
			placements: []ImagePlacement{{X0: 0, Y0: 0, X1: 600, Y1: 680}},
			want:       Keep,
		},
		{
			name: "overlapping images are summed",
			geom: portrait(),
			placements: []ImagePlacement{
				{X0: 0, Y0: 0, X1: 600, Y1: 400},
				{X0: 0, Y0: 0, X1: 600, Y1: 400},
			},
			want: Drop, reason: ReasonCoverage,
		},
		{
			name: "square page without images",
			geom: PageGeometry{Width: 500, Height: 500},
			want: Keep,
		},
		{
			name:       "zero area page is never kept",
			geom:       PageGeometry{Width: 0, Height: 500},
			placements: []ImagePlacement{{X0: 0, Y0: 0, X1: 100, Y1: 100}},
			want:       Drop, reason: ReasonEmpty,
		},
		{
			name: "degenerate page without images",
			geom: PageGeometry{},
			want: Drop, reason: ReasonEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason, _ := ClassifyPage(tt.geom, tt.placements)
			if got != tt.want {
				t.Errorf("decision = %v, want %v", got, tt.want)
			}
			if reason != tt.reason {
				t.Errorf("reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func TestCoverageRatioZeroArea(t *testing.T) {
	got := CoverageRatio(PageGeometry{Width: 0, Height: 0}, []ImagePlacement{{X1: 10, Y1: 10}})
	if got != 0 {
		t.Fatalf("ratio = %v, want 0", got)
	}
}

func TestClassifyKeepsOrderAndCounts(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{geom: portrait()},
		{geom: PageGeometry{Width: 800, Height: 600}},
		{geom: portrait(), images: []fakeImage{{ref: "Im1", bbox: ImagePlacement{X1: 600, Y1: 800}}}},
		{geom: portrait(), images: []fakeImage{{ref: "Im1", bbox: ImagePlacement{X1: 100, Y1: 100}}}},
		{geom: PageGeometry{Width: 595, Height: 842}},
	}}

	res, err := Classify(src)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := []int{0, 3, 4}
	if len(res.Kept) != len(want) {
		t.Fatalf("kept = %v, want %v", res.Kept, want)
	}
	for i := range want {
		if res.Kept[i] != want[i] {
			t.Fatalf("kept = %v, want %v", res.Kept, want)
		}
	}
	if res.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", res.Dropped)
	}
	if res.Dropped+len(res.Kept) != res.Total {
		t.Errorf("dropped+kept = %d, total = %d", res.Dropped+len(res.Kept), res.Total)
	}
	if len(res.Verdicts) != res.Total {
		t.Errorf("verdicts = %d, want %d", len(res.Verdicts), res.Total)
	}
}

func TestClassifySkipsBrokenBBoxes(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{geom: portrait(), images: []fakeImage{
			{ref: "Im1", broken: true},
			{ref: "Im2", bbox: ImagePlacement{X1: 100, Y1: 100}},
		}},
	}}
	res, err := Classify(src)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Kept) != 1 || res.Verdicts[0].Coverage <= 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestClassifyNoValidPages(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{geom: PageGeometry{Width: 800, Height: 600}},
		{geom: portrait(), images: []fakeImage{{ref: "Im1", bbox: ImagePlacement{X1: 600, Y1: 800}}}},
	}}
	res, err := Classify(src)
	if !errors.Is(err, ErrNoValidPages) {
		t.Fatalf("err = %v, want ErrNoValidPages", err)
	}
	if res.Dropped != 2 || len(res.Kept) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClassifyUnreadablePageHasNoImages(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{geom: portrait(), unreadable: true},
		{geom: portrait(), images: []fakeImage{{ref: "Im1", bbox: ImagePlacement{X1: 600, Y1: 800}}}},
	}}
	res, err := Classify(src)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Kept) != 1 || res.Kept[0] != 0 || res.Dropped != 1 {
		t.Fatalf("kept %v dropped %d", res.Kept, res.Dropped)
	}
	if res.Verdicts[0].Coverage != 0 {
		t.Errorf("coverage = %v, want 0", res.Verdicts[0].Coverage)
	}
}

func TestClassifyLeavesDropLoggingToCaller(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = prev }()

	src := &fakeSource{pages: []fakePage{
		{geom: portrait()},
		{geom: PageGeometry{Width: 800, Height: 600}},
	}}
	if _, err := Classify(src); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Classify logged %q", buf.String())
	}
}
