package project_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"dailies/internal/host"
	"dailies/internal/host/simhost"
	"dailies/internal/project"
	"dailies/internal/prompt"
	"dailies/internal/services"
)

func console(input string) (*prompt.Console, *bytes.Buffer) {
	var out bytes.Buffer
	return prompt.New(strings.NewReader(input), &out), &out
}

func TestResolveExistingProject(t *testing.T) {
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	p, out := console("Shoot1\n")
	got, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name() != "Shoot1" {
		t.Fatalf("unexpected project %q", got.Name())
	}
	if strings.Contains(out.String(), "doesn't exist") {
		t.Fatalf("should not offer creation: %q", out.String())
	}
	if !slices.Equal(sim.Ops(), []string{"LoadProject"}) {
		t.Fatalf("unexpected host calls %v", sim.Ops())
	}
}

func TestResolveCreatesAfterConfirmation(t *testing.T) {
	sim := simhost.New()
	p, out := console("Shoot1\nmaybe\nY\n")
	got, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name() != "Shoot1" {
		t.Fatalf("unexpected project %q", got.Name())
	}
	if !strings.Contains(out.String(), "Please answer with y/n.") {
		t.Fatalf("expected re-prompt, got %q", out.String())
	}
	if _, ok := sim.Project("Shoot1"); !ok {
		t.Fatal("project not created on host")
	}
	if !slices.Equal(sim.Ops(), []string{"LoadProject", "CreateProject"}) {
		t.Fatalf("unexpected host calls %v", sim.Ops())
	}
}

func TestResolveDeclineAsksForNewName(t *testing.T) {
	sim := simhost.New(simhost.WithProjects("Shoot2"))
	p, out := console("Shoot1\nn\n\nShoot2\n")
	got, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name() != "Shoot2" {
		t.Fatalf("unexpected project %q", got.Name())
	}
	if !strings.Contains(out.String(), "Please enter a new name for the project.") {
		t.Fatalf("expected new-name message, got %q", out.String())
	}
	if _, ok := sim.Project("Shoot1"); ok {
		t.Fatal("declined project must not be created")
	}
}

func TestResolveCreationFailureIsFatal(t *testing.T) {
	sim := simhost.New()
	sim.FailOn("CreateProject", errors.New("disk full"))
	p, _ := console("Shoot1\ny\n")
	_, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if !errors.Is(err, services.ErrHost) || !errors.Is(err, host.ErrHost) {
		t.Fatalf("expected host failure, got %v", err)
	}
}

func TestResolveLoadFailureIsNotTreatedAsMissing(t *testing.T) {
	sim := simhost.New()
	sim.FailOn("LoadProject", errors.New("bridge down"))
	p, out := console("Shoot1\ny\n")
	_, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if !errors.Is(err, services.ErrHost) {
		t.Fatalf("expected ErrHost, got %v", err)
	}
	if strings.Contains(out.String(), "doesn't exist") {
		t.Fatalf("load failure must not offer creation: %q", out.String())
	}
}

func TestResolveInputClosed(t *testing.T) {
	sim := simhost.New()
	p, _ := console("Shoot1\n")
	_, err := project.Resolve(context.Background(), sim.Projects(), p, nil)
	if !errors.Is(err, prompt.ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
}
