package main

import (
	"io"
	"os"
	"strings"

	spake2plus "github.com/backkem/spake2plus-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "SPAKE2P"

// config is the resolved configuration shared by all subcommands. Values come
// from flags, SPAKE2P_* environment variables and an optional config file, in
// that order of precedence.
type config struct {
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"`
	Backend            string `mapstructure:"backend"`
	Context            string `mapstructure:"context"`
	SymmetricVerifiers bool   `mapstructure:"symmetric_verifiers"`

	KDF        string `mapstructure:"kdf"`
	ScryptN    int    `mapstructure:"scrypt_n"`
	ScryptR    int    `mapstructure:"scrypt_r"`
	ScryptP    int    `mapstructure:"scrypt_p"`
	Iterations int    `mapstructure:"pbkdf2_iterations"`
}

type app struct {
	v      *viper.Viper
	cfg    config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	cmd := &cobra.Command{
		Use:          "spake2p",
		Short:        "SPAKE2+ over P-256",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	defaults := spake2plus.DefaultKDFParams()
	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to a config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json, logfmt)")
	flags.String("backend", "native", "curve backend (native, kyber)")
	flags.String("context", "spake2p demo", "context string hashed into the transcript")
	flags.Bool("symmetric-verifiers", false, "send Ka as the verifier on both sides")
	flags.String("kdf", defaults.Algorithm, "password hardening function (scrypt, pbkdf2)")
	flags.Int("scrypt-n", defaults.ScryptN, "scrypt cost parameter N")
	flags.Int("scrypt-r", defaults.ScryptR, "scrypt block size r")
	flags.Int("scrypt-p", defaults.ScryptP, "scrypt parallelism p")
	flags.Int("pbkdf2-iterations", defaults.Iterations, "PBKDF2 iteration count")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()
	flags.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	cmd.AddCommand(registerCmd(a))
	cmd.AddCommand(demoCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", path)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return errors.Wrap(err, "decoding config")
	}

	logger, err := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, a.errOut)
	if err != nil {
		return err
	}
	a.logger = logger.Named(cmd.Name())
	return nil
}

// newLogger builds a zap logger writing to w with the console, json or
// logfmt encoder.
func newLogger(level, format string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.NameKey = "name"

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "logfmt":
		enc = zaplogfmt.NewEncoder(encCfg)
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// options builds handshake options from the configuration.
func (a *app) options() (*spake2plus.Options, error) {
	opts := spake2plus.DefaultOptions()
	switch a.cfg.Backend {
	case "native", "":
	case "kyber":
		opts.Ciphersuite = spake2plus.KyberCiphersuite()
	default:
		return nil, errors.Errorf("unknown backend %q", a.cfg.Backend)
	}
	opts.Context = []byte(a.cfg.Context)
	opts.SymmetricVerifiers = a.cfg.SymmetricVerifiers
	opts.Logger = a.logger
	return opts, nil
}

func (a *app) kdfParams() spake2plus.KDFParams {
	p := spake2plus.DefaultKDFParams()
	p.Algorithm = a.cfg.KDF
	p.ScryptN = a.cfg.ScryptN
	p.ScryptR = a.cfg.ScryptR
	p.ScryptP = a.cfg.ScryptP
	p.Iterations = a.cfg.Iterations
	return p
}
