package dialogue

import (
	"errors"
	"testing"
)

func TestTransitionTableIsClosed(t *testing.T) {
	known := make(map[State]bool, len(States))
	for _, s := range States {
		known[s] = true
		if _, ok := transitions[s]; !ok {
			t.Fatalf("state %s has no row", s)
		}
	}
	for from, row := range transitions {
		if !known[from] {
			t.Fatalf("row for undeclared state %s", from)
		}
		for kind, step := range row {
			if !known[step.Next] {
				t.Fatalf("%s/%s leads to undeclared state %s", from, kind, step.Next)
			}
			if step.Branch != "" && !known[step.Branch] {
				t.Fatalf("%s/%s branches to undeclared state %s", from, kind, step.Branch)
			}
		}
	}
}

func TestStartIsAcceptedEverywhere(t *testing.T) {
	for _, s := range States {
		step, err := Transition(s, InputStart)
		if err != nil {
			t.Fatalf("start from %s: %v", s, err)
		}
		if step.Next != StateMainMenu || step.Effect != EffectRegister {
			t.Fatalf("start from %s: got %+v", s, step)
		}
	}
}

func TestTransitionRejectsUndeclaredPairs(t *testing.T) {
	cases := []struct {
		state State
		kind  InputKind
	}{
		{StateMainMenu, InputAnswer},
		{StateAskQuestion, InputSelfScore},
		{StateGotAnswer, InputNext},
		{StateBotScore, InputReview},
		{StateFinish, InputNext},
	}
	for _, tc := range cases {
		if _, err := Transition(tc.state, tc.kind); !errors.Is(err, ErrUnexpectedInput) {
			t.Fatalf("%s/%s: expected ErrUnexpectedInput, got %v", tc.state, tc.kind, err)
		}
	}
	if _, err := Transition(State("limbo"), InputNext); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}

func TestTransitionForks(t *testing.T) {
	step, err := Transition(StateMainMenu, InputSpecialty)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if step.Next != StateSelectAnswerType || step.Branch != StateHasStartedTest {
		t.Fatalf("unexpected specialty fork %+v", step)
	}

	for _, from := range []State{StateAreYouReady, StateDoNotUnderstand, StateNoAnswer, StateAnswerScoredByUser} {
		var kind InputKind = InputNext
		if from == StateAreYouReady {
			kind = InputReady
		}
		step, err := Transition(from, kind)
		if err != nil {
			t.Fatalf("%s: %v", from, err)
		}
		if step.Effect != EffectAskQuestion || step.Next != StateAskQuestion || step.Branch != StateUserScore {
			t.Fatalf("%s: expected ask-question step, got %+v", from, step)
		}
	}
}

func TestExpectedIsSortedAndMatchesTable(t *testing.T) {
	got := Expected(StateGotAnswer)
	if len(got) != 2 || got[0] != InputSelfScore || got[1] != InputShowAnswer {
		t.Fatalf("unexpected options %v", got)
	}
	if len(Expected(StateFinish)) != 0 {
		t.Fatalf("finish expects nothing")
	}
}
