package groups

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/clock"
)

type fakeAPI struct {
	created    [][]string
	createName string
	adds       [][]string
	addGroup   string
	failBatch  int
}

func (f *fakeAPI) CreateGroup(_ context.Context, name string, participants []string) (string, error) {
	f.createName = name
	f.created = append(f.created, participants)
	return "120363@g.us", nil
}

func (f *fakeAPI) AddParticipants(_ context.Context, group string, participants []string) error {
	f.addGroup = group
	f.adds = append(f.adds, participants)
	if len(f.adds) == f.failBatch {
		return errors.New("timeout")
	}
	return nil
}

func participants(n int) []Participant {
	out := make([]Participant, n)
	for i := range out {
		out[i] = Participant{Name: fmt.Sprintf("P%d", i), Phone: fmt.Sprintf("+316000000%02d", i)}
	}
	return out
}

func TestBatches(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{3, []int{3}},
		{5, []int{5}},
		{11, []int{5, 5, 1}},
	}
	for _, tt := range tests {
		jids := make([]string, tt.n)
		got := Batches(jids, 5)
		if len(got) != len(tt.want) {
			t.Errorf("n=%d: %d batches, want %d", tt.n, len(got), len(tt.want))
			continue
		}
		for i, b := range got {
			if len(b) != tt.want[i] {
				t.Errorf("n=%d batch %d size %d, want %d", tt.n, i, len(b), tt.want[i])
			}
		}
	}
}

func TestJIDs(t *testing.T) {
	jids, err := JIDs([]Participant{{Name: "Anna", Phone: "+31 6 1234 5678"}})
	if err != nil {
		t.Fatalf("jids: %v", err)
	}
	if jids[0] != "31612345678@s.whatsapp.net" {
		t.Errorf("jid = %q", jids[0])
	}

	_, err = JIDs([]Participant{{Name: "Short", Phone: "12345"}})
	var invalid *InvalidPhoneError
	if !errors.As(err, &invalid) || invalid.Participant.Name != "Short" {
		t.Errorf("err = %v, want InvalidPhoneError", err)
	}
}

func TestBuild_CreateThenBatches(t *testing.T) {
	api := &fakeAPI{failBatch: 2}
	clk := clock.NewRecording(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	b := NewBuilder(api, clk, "Party Group", zerolog.Nop())

	res, err := b.Build(context.Background(), Request{Participants: participants(12)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(api.created) != 1 || len(api.created[0]) != 1 {
		t.Fatalf("create called with %v", api.created)
	}
	if api.createName != "Party Group" || res.GroupName != "Party Group" {
		t.Errorf("name = %q / %q", api.createName, res.GroupName)
	}

	// 11 remaining participants: 5, 5, 1.
	if len(api.adds) != 3 {
		t.Fatalf("add calls = %d, want 3", len(api.adds))
	}
	if api.addGroup != "120363@g.us" {
		t.Errorf("added to %q", api.addGroup)
	}
	if !res.Created || res.GroupID != "120363@g.us" || res.TotalParticipants != 12 {
		t.Errorf("result = %+v", res)
	}
	if res.Batches[1].Success || res.Batches[1].Error != "timeout" || !res.Batches[2].Success {
		t.Errorf("batches = %+v", res.Batches)
	}

	waits := clk.Waits()
	if len(waits) != 2 || waits[0] != time.Second {
		t.Errorf("waits = %v", waits)
	}
}

func TestBuild_ExistingGroupAddsEveryone(t *testing.T) {
	api := &fakeAPI{}
	b := NewBuilder(api, clock.NewRecording(time.Now()), "Party Group", zerolog.Nop())

	res, err := b.Build(context.Background(), Request{GroupJID: "999@g.us", Name: "Custom", Participants: participants(3)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(api.created) != 0 {
		t.Error("existing group should not be created")
	}
	if len(api.adds) != 1 || len(api.adds[0]) != 3 {
		t.Errorf("adds = %v", api.adds)
	}
	if res.Created || res.GroupID != "999@g.us" || res.GroupName != "Custom" {
		t.Errorf("result = %+v", res)
	}
}

func TestBuild_SingleParticipant(t *testing.T) {
	api := &fakeAPI{}
	res, err := NewBuilder(api, clock.NewRecording(time.Now()), "G", zerolog.Nop()).
		Build(context.Background(), Request{Participants: participants(1)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(api.adds) != 0 || len(res.Batches) != 0 {
		t.Errorf("unexpected add calls: %v", api.adds)
	}
}

func TestBuild_NoParticipants(t *testing.T) {
	_, err := NewBuilder(&fakeAPI{}, nil, "G", zerolog.Nop()).Build(context.Background(), Request{})
	if !errors.Is(err, ErrNoParticipants) {
		t.Errorf("err = %v", err)
	}
}
