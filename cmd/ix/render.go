package main

import (
	"fmt"
	"os"

	errors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/interaxions/interaxions/agents"
	"github.com/interaxions/interaxions/environments"
	"github.com/interaxions/interaxions/schemas"
	"github.com/interaxions/interaxions/workflows"
)

func newRenderCmd(flags *rootFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "render <job.yaml>",
		Short: "Render a job definition into an Argo Workflow manifest",
		Long: `Render a job definition into an Argo Workflow manifest.

The job's scaffold, environment, and workflow components are loaded through
the hub (built-ins first, then dynamically from their repositories), their
tasks are assembled, and the resulting manifest is printed to stdout.
Submitting the manifest is left to the operator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, errors.CodeNotFound, "failed to read job file %s", args[0])
			}

			var job schemas.Job
			if err := yaml.Unmarshal(data, &job); err != nil {
				return errors.Wrapf(err, errors.CodeInvalidConfig, "invalid job file %s", args[0])
			}
			job.Normalize()
			if err := job.Validate(); err != nil {
				return err
			}

			manifest, err := renderJob(cmd, flags, &job, name)
			if err != nil {
				return err
			}

			out, err := manifest.RenderYAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "",
		"workflow name (default: the job id)")
	return cmd
}

func renderJob(cmd *cobra.Command, flags *rootFlags, job *schemas.Job, name string) (*workflows.Workflow, error) {
	h, err := newHub(flags)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	agent, err := h.LoadAgent(ctx, job.Scaffold.Repo, job.Scaffold.Revision)
	if err != nil {
		return nil, err
	}
	factory, err := h.LoadEnvironmentFactory(ctx, job.Environment.Repo, job.Environment.Revision)
	if err != nil {
		return nil, err
	}
	def, err := h.LoadWorkflow(ctx, job.Workflow.Repo, job.Workflow.Revision)
	if err != nil {
		return nil, err
	}

	env, err := factory.Get(environments.GetRequest{
		EnvironmentID: job.Environment.EnvironmentID,
		Source:        job.Environment.Source,
		Params:        job.Environment.Params,
	})
	if err != nil {
		return nil, err
	}

	agentTask, err := agent.CreateTask("agent-rollout", &agents.TaskContext{
		Model:           job.Model.Settings(),
		InstanceID:      job.Environment.EnvironmentID,
		Dataset:         paramString(job.Environment.Params, "dataset"),
		Split:           paramString(job.Environment.Params, "split"),
		WorkingDir:      paramString(job.Environment.Params, "working_dir"),
		BaseCommit:      paramString(job.Environment.Params, "base_commit"),
		ImagePullPolicy: job.Runtime.ImagePullPolicy,
		Params:          job.Scaffold.Params,
	})
	if err != nil {
		return nil, err
	}

	verifyTask, err := env.CreateTask("environment-verify", job.Environment.Params)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = job.JobID
	}
	return def.Create(name, workflows.CreateRequest{
		AgentTask:  agentTask,
		VerifyTask: verifyTask,
		Runtime:    job.Runtime,
		Params:     job.Workflow.Params,
	})
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
