package normalizer

import "github.com/knazir/pgtrace/internal/logflags"

// crashExceptionMsg is the generic message attached to the terminal
// event when the trace was cut short by a parse failure.
const crashExceptionMsg = "your program crashed before the trace could finish"

// labelAndFilter runs the four-pass cascade of spec §4.5 over an ordered
// list of Execution Points, returning the final ordered list.
//
// parseFailed indicates whether a ParseError latched while reading the
// trace (spec §4.2); it controls Pass D's terminal-event override.
// oneRecordPerLine enables the final duplicate-line collapse (the
// default, per spec §4.5).
//
// Returns an InvariantViolation if a "???" func_name survives Pass A
// (spec §3, §7, §8): that sentinel must never appear in a retained frame.
func labelAndFilter(points []*ExecutionPoint, parseFailed bool, oneRecordPerLine bool) ([]*ExecutionPoint, error) {
	if logflags.Filter() {
		logflags.FilterLogger().Debugf("labeling %d candidate points, parseFailed=%v", len(points), parseFailed)
	}
	retained := passACoarseFilter(points)
	if err := assertNoInvalidFuncName(retained); err != nil {
		return nil, err
	}
	retained = passBStackCoherence(retained)
	passCEventLabeling(retained)
	retained = passDTerminalAndDedup(retained, parseFailed, oneRecordPerLine)
	if logflags.Filter() {
		logflags.FilterLogger().Debugf("retained %d points after all passes", len(retained))
	}
	return retained, nil
}

// passACoarseFilter drops any point with a "0x0" frame_id or duplicate
// frame_ids.
func passACoarseFilter(points []*ExecutionPoint) []*ExecutionPoint {
	out := make([]*ExecutionPoint, 0, len(points))
	for _, p := range points {
		ids := p.frameIDs()

		hasNull := false
		seen := make(map[string]bool, len(ids))
		dup := false
		for _, id := range ids {
			if id == NullFramePointer {
				hasNull = true
			}
			if seen[id] {
				dup = true
			}
			seen[id] = true
		}
		if hasNull || dup {
			continue
		}
		out = append(out, p)
	}
	return out
}

// assertNoInvalidFuncName enforces the standing invariant that no
// retained frame's func_name is "???" (spec §3, §8). Unlike the noise
// dropped by passACoarseFilter, a "???" func_name surviving this far is
// not recoverable noise: spec §7 lists it as one of the three triggers
// for a fatal InvariantViolation.
func assertNoInvalidFuncName(points []*ExecutionPoint) error {
	for _, p := range points {
		for _, f := range p.StackToRender {
			if f.FuncName == InvalidFuncName {
				return newInvariantViolation("frame %s on line %d has invalid func_name %q", f.FrameID, p.Line, InvalidFuncName)
			}
		}
	}
	return nil
}

// passBStackCoherence retains the first surviving point unconditionally,
// then keeps only the candidates whose frame_id vector is identical to,
// one call deeper than, or one return shallower than the last-retained
// point. This is the heuristic that drops transient records captured
// before a neighbor's frame vector has caught up (spec §9).
func passBStackCoherence(points []*ExecutionPoint) []*ExecutionPoint {
	if len(points) == 0 {
		return points
	}
	out := make([]*ExecutionPoint, 0, len(points))
	out = append(out, points[0])
	prevIDs := points[0].frameIDs()

	for _, cur := range points[1:] {
		curIDs := cur.frameIDs()
		if coherent(prevIDs, curIDs) {
			out = append(out, cur)
			prevIDs = curIDs
		}
	}
	return out
}

// coherent reports whether cur is identical to prev, prev with exactly
// one element appended, or prev with exactly its last element removed.
func coherent(prev, cur []string) bool {
	switch {
	case len(prev) == len(cur):
		return stringsEqual(prev, cur)
	case len(cur) == len(prev)+1:
		return stringsEqual(prev, cur[:len(cur)-1])
	case len(prev) == len(cur)+1:
		return stringsEqual(cur, prev[:len(prev)-1])
	default:
		return false
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// passCEventLabeling walks the retained sequence pairwise, marking a
// call when cur's frame vector is prev's plus one appended frame, and
// marking prev as a return when cur's frame vector is prev's with the
// last frame removed. Every other transition is left as step_line.
func passCEventLabeling(points []*ExecutionPoint) {
	for i := 0; i+1 < len(points); i++ {
		prev, cur := points[i], points[i+1]
		prevIDs, curIDs := prev.frameIDs(), cur.frameIDs()

		switch {
		case len(curIDs) == len(prevIDs)+1 && stringsEqual(prevIDs, curIDs[:len(curIDs)-1]):
			cur.Event = EventCall
		case len(prevIDs) == len(curIDs)+1 && stringsEqual(curIDs, prevIDs[:len(prevIDs)-1]):
			prev.Event = EventReturn
		}
	}
}

// passDTerminalAndDedup overrides the terminal event and, if enabled,
// collapses consecutive step_line points on the same line with the same
// frame-id vector. The override runs before the collapse so that call
// and return boundaries are never swallowed by it.
func passDTerminalAndDedup(points []*ExecutionPoint, parseFailed bool, oneRecordPerLine bool) []*ExecutionPoint {
	if len(points) == 0 {
		return points
	}
	last := points[len(points)-1]
	if parseFailed {
		last.Event = EventException
		last.ExceptionMsg = crashExceptionMsg
	} else {
		last.Event = EventReturn
	}

	if !oneRecordPerLine {
		return points
	}

	out := make([]*ExecutionPoint, 0, len(points))
	var prevEvent Event
	var prevLine int
	var prevIDs []string
	havePrev := false

	for _, p := range points {
		ids := p.frameIDs()
		skip := false
		if havePrev && p.Event == EventStepLine && prevEvent == EventStepLine &&
			p.Line == prevLine && stringsEqual(ids, prevIDs) {
			skip = true
		}
		if !skip {
			out = append(out, p)
		}
		prevEvent, prevLine, prevIDs, havePrev = p.Event, p.Line, ids, true
	}
	return out
}
