package normalizer

import "testing"

func TestCoherentIdenticalVectors(t *testing.T) {
	if !coherent([]string{"0xA"}, []string{"0xA"}) {
		t.Fatal("identical vectors must be coherent")
	}
}

func TestCoherentCallAppendsOneFrame(t *testing.T) {
	if !coherent([]string{"0xA"}, []string{"0xA", "0xB"}) {
		t.Fatal("appending exactly one frame must be coherent (call)")
	}
}

func TestCoherentReturnDropsOneFrame(t *testing.T) {
	if !coherent([]string{"0xA", "0xB"}, []string{"0xA"}) {
		t.Fatal("dropping exactly the last frame must be coherent (return)")
	}
}

func TestCoherentRejectsMissingMiddleFrame(t *testing.T) {
	// main -> foo (bogus, missing main) -> main,foo: the bogus entry must
	// be incoherent with respect to its predecessor.
	if coherent([]string{"0xA"}, []string{"0xB"}) {
		t.Fatal("an unrelated single frame must not be coherent")
	}
}

func TestCoherentRejectsTwoFrameJump(t *testing.T) {
	if coherent([]string{"0xA"}, []string{"0xA", "0xB", "0xC"}) {
		t.Fatal("appending two frames at once must not be coherent")
	}
}
