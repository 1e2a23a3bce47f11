package align

import (
	"fmt"
	"sort"

	"github.com/biogo/hts/sam"

	"github.com/inodb/readphase/internal/phase"
)

var rgTagBytes = []byte("RG")

// AssembleOptions configures the Read Assembler's pre-projection filtering.
type AssembleOptions struct {
	MinMapQ        byte
	Sample         string // empty means no sample filtering
	DefaultQuality int
}

// AssembleStats counts records rejected by Assemble, by reason, plus the
// number of fragments produced.
type AssembleStats struct {
	Unmapped      int
	Secondary     int
	Supplementary int
	LowMapQ       int
	MissingCigar  int
	WrongSample   int
	Projected     int
	SingleEnd     int
	Merged        int
}

// SampleReadGroups builds the read-group-id -> sample-name map used by the
// sample filter, computed once from the alignment header.
func SampleReadGroups(h *sam.Header) map[string]string {
	out := make(map[string]string, len(h.RGs()))
	for _, rg := range h.RGs() {
		out[rg.Name()] = rg.Get(sam.Tag{'S', 'M'})
	}
	return out
}

// recordSample returns the sample name for rec's read group, and whether a
// read group tag was present at all.
func recordSample(rec *sam.Record, rgToSample map[string]string) (sample string, tagged bool) {
	aux, ok := rec.Tag(rgTagBytes)
	if !ok {
		return "", false
	}
	rgID, ok := aux.Value().(string)
	if !ok {
		return "", false
	}
	sample, ok = rgToSample[rgID]
	return sample, ok
}

// Assemble applies the pre-projection filters, runs the Allele Projector
// over every surviving record, groups the results by read name, and merges
// mate pairs into single fragments separated by phase.GapSentinel. Groups of
// more than two records sharing a name fail with ErrAmbiguousPair.
func Assemble(records []*sam.Record, header *sam.Header, variants []phase.VariantSite, opts AssembleOptions) ([]*phase.Fragment, AssembleStats, error) {
	rgToSample := map[string]string(nil)
	if opts.Sample != "" {
		rgToSample = SampleReadGroups(header)
	}

	var stats AssembleStats
	type projected struct {
		rec *sam.Record
		obs []phase.Observation
	}
	groups := make(map[string][]projected)
	var order []string

	for _, rec := range records {
		switch {
		case rec.Flags&sam.Unmapped != 0:
			stats.Unmapped++
			continue
		case rec.Flags&sam.Secondary != 0:
			stats.Secondary++
			continue
		case rec.Flags&sam.Supplementary != 0:
			stats.Supplementary++
			continue
		case rec.MapQ < opts.MinMapQ:
			stats.LowMapQ++
			continue
		case len(rec.Cigar) == 0:
			stats.MissingCigar++
			continue
		}

		if opts.Sample != "" {
			sample, tagged := recordSample(rec, rgToSample)
			if !tagged || sample != opts.Sample {
				stats.WrongSample++
				continue
			}
		}

		obs, err := Project(rec, variants, opts.DefaultQuality)
		if err != nil {
			return nil, stats, err
		}
		stats.Projected++

		if _, seen := groups[rec.Name]; !seen {
			order = append(order, rec.Name)
		}
		groups[rec.Name] = append(groups[rec.Name], projected{rec: rec, obs: obs})
	}

	fragments := make([]*phase.Fragment, 0, len(order))
	for _, name := range order {
		g := groups[name]
		switch len(g) {
		case 1:
			fragments = append(fragments, phase.NewFragment(name, g[0].rec.MapQ, g[0].obs))
			stats.SingleEnd++
		case 2:
			a, b := g[0], g[1]
			if b.rec.Flags&sam.Read1 != 0 && a.rec.Flags&sam.Read1 == 0 {
				a, b = b, a
			}
			merged := make([]phase.Observation, 0, len(a.obs)+len(b.obs)+1)
			merged = append(merged, a.obs...)
			merged = append(merged, phase.Observation{Pos: phase.GapSentinel, IsGap: true})
			merged = append(merged, b.obs...)
			fragments = append(fragments, &phase.Fragment{
				ID:   -1,
				Name: name,
				MapQ: [2]int{int(a.rec.MapQ), int(b.rec.MapQ)},
				Obs:  merged,
				HP:   -1,
				PS:   -1,
			})
			stats.Merged++
		default:
			return nil, stats, fmt.Errorf("%w: %q has %d alignments", ErrAmbiguousPair, name, len(g))
		}
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		fi, _, _ := fragments[i].Span()
		fj, _, _ := fragments[j].Span()
		return fi < fj
	})

	return fragments, stats, nil
}
