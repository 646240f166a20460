package diag

import "codeberg.org/mutker/kscand/internal/topology"

// lineSummary accumulates per-line contributions while walking the key table.
type lineSummary struct {
	activity    uint32
	involved    uint32
	chatterKeys uint32
	missing     uint32
}

// computeLineStatus derives per-line health from key statistics and the
// topology mapping. Only meaningful for multiplexed matrices, where every
// key event involves exactly one drive and one sense line; for plain
// matrices the result is empty.
//
// The fault rule is deliberately conservative: a wired line that never
// triggers, carries a chattering key, or serves a key that was never
// observed is flagged. Over-flagging is acceptable, a silently broken line
// is not.
func computeLineStatus(stats *statsTable, topo *topology.Topology) []LineStatus {
	if !topo.Multiplexed() {
		return nil
	}

	summaries := make([]lineSummary, topo.LineCount())
	for pos := 0; pos < stats.len(); pos++ {
		drive, sense, ok := topo.LinesFor(pos)
		if !ok {
			continue
		}

		ks := stats.at(pos)
		events := ks.pressCount + ks.releaseCount
		for _, idx := range [2]int{drive, sense} {
			s := &summaries[idx]
			s.involved++
			s.activity += events
			if ks.chatterCount > 0 {
				s.chatterKeys++
			}
			if !ks.seen {
				s.missing++
			}
		}
	}

	out := make([]LineStatus, topo.LineCount())
	for i := range out {
		line, _ := topo.Line(i)
		s := summaries[i]
		out[i] = LineStatus{
			Index:        uint32(i),
			Pin:          line.Pin,
			Port:         line.Port,
			Activity:     s.activity,
			InvolvedKeys: s.involved,
			ChatterKeys:  s.chatterKeys,
			MissingKeys:  s.missing,
			SuspectedFault: s.involved > 0 &&
				(s.activity == 0 || s.chatterKeys > 0 || s.missing > 0),
		}
	}
	return out
}
