package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor/stml0xx"
	"sensorhub/internal/server"
)

var RootCmd = &cobra.Command{
	Use:   "hubd",
	Short: "decode and serve readings of an stml0xx sensor hub",
	Long:  "decode and serve readings of an stml0xx sensor hub",
}

func ServeCmdRunE(cmd *cobra.Command, args []string) error {
	return server.NewMainApp(cmd, args).PrepareRun().Run()
}

// BuildFlags are shared by every command that assembles a decoder.
func BuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().String("variant", config.DefaultVariant, "hardware variant: "+strings.Join(stml0xx.VariantNames(), ", "))
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func ServeCmdFlags(cmd *cobra.Command) {
	BuildFlags(cmd)
	cmd.Flags().IntP("port", "p", config.DefaultAPIPort, "port that the api server listens on")
	cmd.Flags().StringP("interface", "i", config.DefaultAPIInterface, "interface that the api server listens on, default to 0.0.0.0")
	cmd.Flags().String("source", config.DefaultSourceType, "raw record source: serial, evdev or replay")
	cmd.Flags().StringP("device", "d", config.DefaultSourceName, "serial port, input device or replay file")
}

var ServeCmd = &cobra.Command{
	Use: "serve",
	SuggestFor: []string{
		"ru", "ser",
	},
	Short: "serve start the sensor hub daemon using predefined configs.",
	Long: `serve start the sensor hub daemon using predefined configs, by the following order:
1. path specified in --config flag
2. path defined SENSORHUB_CONFIG environment variable
3. default location $HOME/.config/sensorhub/config.yaml, /etc/sensorhub/config.yaml, current directory, /config
The parameters in the configuration file will be overwritten by the following order:
1. command line arguments
2. environment variables
`,
	Example: `  hubd serve --config=/path/to/config
  hubd serve --source evdev --device /dev/input/event3`,
	RunE: ServeCmdRunE,
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output directory")
	cmd.Flags().String("config", "", "configuration to rewrite with --update")
	cmd.Flags().Bool("update", false, "rewrite the configuration in use with every default filled in")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
The configuration file can be used to launch the sensor hub daemon.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/sensorhub/config.yaml
If --yes / -y flag is present, the configuration will be overwrite without confirmation
If --update flag is present, the configuration in use (--config, SENSORHUB_CONFIG or the search path)
is rewritten in place with every default filled in
`,
	Example: `  hubd init --print
  hubd init --output /path/to/config.yaml
  hubd init -o /path/to/config.yaml -y
  hubd init --update --config /path/to/config.yaml`,
	RunE: config.InitCfg,
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe the serial ports for a sensor hub",
	Long: `probe the serial ports for a sensor hub.
The probe command opens every candidate serial port and reports those that deliver a valid hub packet.
Only the configured baud rate is tried.
`,
	Example: `  hubd probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.NewMainApp(cmd, args).PrepareRun().ProbeSensor()
	},
}

var KindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "list the sensors compiled into the configured build",
	Long: `list the sensors compiled into the configured build.
Each line shows the handle, the sensor name, its value shape and the slot roles of its channel map entry,
with the input event code of slots that travel on the shared input device.
`,
	Example: `  hubd kinds --variant kxcj9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.NewMainApp(cmd, args).PrepareRun().ListKinds()
	},
}

var DecodeCmd = &cobra.Command{
	Use:   "decode FILE",
	Short: "decode a replay file to JSON lines",
	Long: `decode a replay file to JSON lines.
Every line of FILE is a raw hub record {"kind": ..., "fields": [...], "timestamp": ...}.
Every record produces one output line holding either the calibrated reading or the error code.
`,
	Example: `  hubd decode capture.jsonl`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.NewMainApp(cmd, args).PrepareRun().Decode(args[0])
	},
}

func getRootCmd() *cobra.Command {

	ServeCmdFlags(ServeCmd)
	RootCmd.AddCommand(ServeCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	BuildFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	BuildFlags(KindsCmd)
	RootCmd.AddCommand(KindsCmd)

	BuildFlags(DecodeCmd)
	RootCmd.AddCommand(DecodeCmd)

	return RootCmd
}

func Execute() {
	rootCmd := getRootCmd()
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
