// Package project resolves the operator's project by name, offering to create
// it when the host does not know it.
package project

import (
	"context"
	"errors"
	"log/slog"

	"dailies/internal/host"
	"dailies/internal/logging"
	"dailies/internal/prompt"
	"dailies/internal/services"
)

// Stage names the resolution step in errors and logs.
const Stage = "resolve_project"

const (
	nameQuestion   = "What is the name of the project? "
	createQuestion = "That project doesn't exist. Would you like to create and load it? (y/n): "
	askNewName     = "Please enter a new name for the project."
	answerYesNo    = "Please answer with y/n."
)

// Resolve prompts for a project name and returns the loaded project. A missing
// project is created only after confirmation; declining asks for another name.
func Resolve(ctx context.Context, catalog host.ProjectCatalog, p prompt.Prompter, logger *slog.Logger) (host.Project, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	for {
		name, err := p.Ask(ctx, nameQuestion)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		project, err := catalog.LoadProject(ctx, name)
		if err == nil && project != nil {
			logger.Info("project loaded", logging.String("project", name))
			return project, nil
		}
		if err != nil && !errors.Is(err, host.ErrNotFound) {
			return nil, services.Wrap(services.ErrHost, Stage, "load project", name, err)
		}

		create, err := p.Confirm(ctx, createQuestion, func(string) string { return answerYesNo })
		if err != nil {
			return nil, err
		}
		if !create {
			p.Say(askNewName)
			continue
		}

		project, err = catalog.CreateProject(ctx, name)
		if err != nil {
			return nil, services.Wrap(services.ErrHost, Stage, "create project", name, err)
		}
		if project == nil {
			return nil, services.Wrap(services.ErrHost, Stage, "create project", name+": host returned no project", nil)
		}
		logger.Info("project created", logging.String("project", name))
		return project, nil
	}
}
