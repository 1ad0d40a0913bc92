package normalizer

// Event is the stack-event label attached to an Execution Point.
type Event string

const (
	EventStepLine          Event = "step_line"
	EventCall              Event = "call"
	EventReturn            Event = "return"
	EventException         Event = "exception"
	EventUncaughtException Event = "uncaught_exception"
)

// RenderedFrame is one activation record as it should be displayed by
// the visualizer, outer-to-inner ordering within an Execution Point's
// StackToRender.
type RenderedFrame struct {
	FuncName        string                  `json:"func_name"`
	OrderedVarnames []string                `json:"ordered_varnames"`
	EncodedLocals   map[string]EncodedValue `json:"encoded_locals"`
	FrameID         string                  `json:"frame_id"`
	UniqueHash      string                  `json:"unique_hash"`
	IsHighlighted   bool                    `json:"is_highlighted"`
	IsParent        bool                    `json:"is_parent"`
	IsZombie        bool                    `json:"is_zombie"`
	ParentFrameIDs  []string                `json:"parent_frame_id_list"`
}

// ExecutionPoint is one moment of execution: line, stack, heap and
// globals, as produced by exactly one Raw Record.
type ExecutionPoint struct {
	Line           int                     `json:"line"`
	FuncName       string                  `json:"func_name"`
	Event          Event                   `json:"event"`
	StackToRender  []*RenderedFrame        `json:"stack_to_render"`
	Heap           map[string]EncodedValue `json:"heap"`
	Globals        map[string]EncodedValue `json:"globals"`
	OrderedGlobals []string                `json:"ordered_globals"`
	Stdout         string                  `json:"stdout"`
	ExceptionMsg   string                  `json:"exception_msg,omitempty"`
}

// frameIDs returns the ordered frame_id vector used by the stack-
// coherence heuristic (Pass B/C).
func (p *ExecutionPoint) frameIDs() []string {
	ids := make([]string, len(p.StackToRender))
	for i, f := range p.StackToRender {
		ids[i] = f.FrameID
	}
	return ids
}

// processRecord turns one parsed Raw Record into one Execution Point, or
// (nil, nil) if the record's stack is empty (spec §4.4 step 1: an early
// record before the prologue completes).
func processRecord(rec *RawRecord) (*ExecutionPoint, error) {
	if len(rec.Stack) == 0 {
		return nil, nil
	}

	// The raw stack arrives innermost-first; reverse it so index 0 is
	// the outermost frame and the last is the one currently executing.
	stack := make([]*Frame, len(rec.Stack))
	for i, f := range rec.Stack {
		stack[len(rec.Stack)-1-i] = f
	}
	top := stack[len(stack)-1]

	h := make(heap)
	point := &ExecutionPoint{
		Line:           rec.Line,
		FuncName:       top.FuncName,
		Event:          EventStepLine,
		Heap:           h,
		Globals:        make(map[string]EncodedValue, len(rec.Globals)),
		OrderedGlobals: rec.OrderedGlobals,
		Stdout:         "",
	}
	if point.OrderedGlobals == nil {
		point.OrderedGlobals = []string{}
	}

	for name, val := range rec.Globals {
		enc, err := encode(val, h)
		if err != nil {
			return nil, err
		}
		point.Globals[name] = enc
	}

	point.StackToRender = make([]*RenderedFrame, len(stack))
	for i, f := range stack {
		rendered := &RenderedFrame{
			FuncName:        f.FuncName,
			OrderedVarnames: f.OrderedVarnames,
			FrameID:         f.FP,
			UniqueHash:      f.FuncName + "_" + f.FP,
			IsHighlighted:   f == top,
			IsParent:        false,
			IsZombie:        false,
			ParentFrameIDs:  []string{},
			EncodedLocals:   make(map[string]EncodedValue, len(f.Locals)),
		}
		if rendered.OrderedVarnames == nil {
			rendered.OrderedVarnames = []string{}
		}
		for name, val := range f.Locals {
			enc, err := encode(val, h)
			if err != nil {
				return nil, err
			}
			rendered.EncodedLocals[name] = enc
		}
		point.StackToRender[i] = rendered
	}

	return point, nil
}
