package workflows

import (
	errors "github.com/jmgilman/go/errors"
)

// TypeRolloutAndVerify names the built-in two-phase workflow: agent rollout
// followed by environment verification.
const TypeRolloutAndVerify = "rollout-and-verify"

// RolloutAndVerify orders an agent task before an environment verification
// task and wires both into a single-DAG workflow.
type RolloutAndVerify struct {
	config Config
}

func newRolloutAndVerify(cfg Config) (Definition, error) {
	return &RolloutAndVerify{config: cfg}, nil
}

func (w *RolloutAndVerify) Type() string {
	return TypeRolloutAndVerify
}

// Create assembles the manifest. The verify task is made dependent on the
// rollout task; any dependencies the components set themselves are kept.
func (w *RolloutAndVerify) Create(name string, req CreateRequest) (*Workflow, error) {
	if name == "" {
		return nil, errors.New(errors.CodeInvalidInput, "workflow name is required")
	}
	if req.AgentTask == nil || req.VerifyTask == nil {
		return nil, errors.New(errors.CodeInvalidInput,
			"rollout-and-verify requires both an agent task and a verify task")
	}

	verify := *req.VerifyTask
	verify.Dependencies = appendUnique(verify.Dependencies, req.AgentTask.Name)

	return assemble(name, req.Runtime, req.AgentTask, &verify), nil
}

func appendUnique(deps []string, name string) []string {
	for _, dep := range deps {
		if dep == name {
			return deps
		}
	}
	return append(deps, name)
}
