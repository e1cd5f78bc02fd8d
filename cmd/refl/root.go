package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/host"
	"github.com/wippyai/typerefl/layout"
	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/seq"
	"github.com/wippyai/typerefl/typegraph"
)

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg        *viper.Viper
	log        *zap.Logger
	styles     styles
	configFile string
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{cfg: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "refl",
		Short:         "Inspect type descriptors and their memory layout",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(a.cfg, a.configFile); err != nil {
				return err
			}
			log, err := newLogger(a.cfg.GetString(cfgKeyLogLevel))
			if err != nil {
				return err
			}
			a.log = log
			installLogger(log)
			a.styles = newStyles(colorEnabled(a.cfg.GetBool(cfgKeyColor), cmd.OutOrStdout()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./typerefl.yaml)")
	flags.StringP("descriptor", "d", "", "YAML type descriptor")
	flags.String("log-level", defaultLogLevel, "log level: debug, info, warn, error or off")
	flags.Bool("color", true, "colorize output on terminals")
	bindFlags(a.cfg, flags)

	root.AddCommand(
		newInspectCmd(a),
		newDescribeCmd(a),
		newVerifyCmd(a),
		newWITCmd(a),
		newBrowseCmd(a),
		newRunCmd(a),
	)
	return root, a
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root, _ := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

func exitCode(err error) int {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return exitUserError
	}
	var usage usageError
	if stderrors.As(err, &usage) {
		return exitUserError
	}
	return exitSysError
}

// usageError marks failures caused by the invocation rather than the system.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// reflector loads the configured descriptor.
func (a *app) reflector() (*refl.Reflector, error) {
	path := a.cfg.GetString(cfgKeyDescriptor)
	if path == "" {
		return nil, usagef("no descriptor given (use --descriptor or %s_DESCRIPTOR)", envPrefix)
	}
	g, err := typegraph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug("descriptor loaded", zap.String("path", path), zap.Int("types", g.Len()))
	return refl.New(g), nil
}

func installLogger(l *zap.Logger) {
	typegraph.SetLogger(l.Named("typegraph"))
	layout.SetLogger(l.Named("layout"))
	refl.SetLogger(l.Named("refl"))
	seq.SetLogger(l.Named("seq"))
	host.SetLogger(l.Named("host"))
}
