package cmd

import (
	"context"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/agent-sender/pkg/config"
	logx "github.com/tanpawarit/agent-sender/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "agent-sender",
	Short: "Agent-sender turns an outreach goal into a plan and executes it",
	Long: `agent-sender breaks a free-text goal into ordered steps (search, write_email,
send_email, ...) and runs them one by one, recording every step transition so a
run can be inspected, exported or resumed.

Common workflows:

  Plan and run a goal:
    agent-sender run "Find 3 AI startup founders" --tone friendly

  Resume a run that was interrupted:
    agent-sender resume <run-id>

  List recorded runs:
    agent-sender history

  Export persisted leads:
    agent-sender export leads --format xlsx --dir exports

Configuration is read from the environment, optionally seeded from a .env file:
  AGENT_TONE, AGENT_STEP_INTERVAL     default tone and pause between steps
  PLANNER_STRATEGY                    keyword (default) or generative
  OPENROUTER_API_KEY, OPENROUTER_MODEL
  TOOLS_WRITER, TOOLS_SEARCH_LIMIT    template (default) or generative writer
  EMAIL_ADDRESS, EMAIL_PASSWORD, EMAIL_DRY_RUN
  STORE_BACKEND, STORE_DIR            file (default), upstash or postgres`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile == "" {
			return
		}
		configx.SetEnvFile(envFile)
		if conf, err := configx.New[logx.Config]("LOG"); err == nil {
			logx.Init(*conf)
		}
	},
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env when present)")
}
