package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/pkg/client"
	"github.com/BuzzLyutic/taskflow/pkg/taskstate"
)

const (
	keyServer = "server"
	keyToken  = "token"
	keyDebug  = "debug"
)

// app собирает общие зависимости всех подкоманд
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
	client  *client.Client
	stdin   *bufio.Reader
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage taskflow tasks from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.taskctl.yaml)")
	flags.String(keyServer, "http://localhost:8080", "taskflow server URL")
	flags.String(keyToken, "", "session token")
	flags.Bool(keyDebug, false, "log requests to stderr")
	_ = a.v.BindPFlag(keyServer, flags.Lookup(keyServer))
	_ = a.v.BindPFlag(keyToken, flags.Lookup(keyToken))
	_ = a.v.BindPFlag(keyDebug, flags.Lookup(keyDebug))

	rootCmd.AddCommand(
		a.loginCmd(),
		a.signupCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.toggleCmd(),
		a.removeCmd(),
		a.statsCmd(),
		a.dayCmd(),
		a.groupedCmd(),
	)
	return rootCmd
}

func (a *app) init() error {
	a.v.SetEnvPrefix("TASKCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			a.cfgFile = filepath.Join(home, ".taskctl.yaml")
		}
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config %s: %w", a.cfgFile, err)
			}
		}
	}

	a.logger = zap.NewNop()
	if a.v.GetBool(keyDebug) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.logger = logger
	}

	c, err := client.New(client.Config{
		BaseURL: a.v.GetString(keyServer),
		Token:   a.v.GetString(keyToken),
	})
	if err != nil {
		return err
	}
	a.client = c
	return nil
}

// saveToken записывает токен в конфиг, чтобы следующие вызовы были авторизованы
func (a *app) saveToken(token string) error {
	if a.cfgFile == "" {
		return nil
	}
	a.v.Set(keyToken, token)
	if err := a.v.WriteConfigAs(a.cfgFile); err != nil {
		return fmt.Errorf("save session to %s: %w", a.cfgFile, err)
	}
	return nil
}

// store returns a task store signed in as the token's owner.
func (a *app) store(ctx context.Context) (*taskstate.Store, error) {
	if a.client.Token() == "" {
		return nil, errors.New("not logged in, run `taskctl login` first")
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			return nil, errors.New("session expired, run `taskctl login` again")
		}
		return nil, err
	}

	s := taskstate.New(a.client, a.logger)
	if err := s.SetIdentity(ctx, &model.Identity{UserID: me.ID, Email: me.Email}); err != nil {
		return nil, err
	}
	return s, nil
}
