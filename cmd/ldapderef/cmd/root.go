package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
	format      string
}

const (
	formatHex    = "hex"
	formatBase64 = "base64"
)

var supportedFormats = []string{
	formatHex,
	formatBase64,
}

var longRootCmdDescription = `ldapderef encodes and decodes the values of the LDAP dereference control
(OID 1.3.6.1.4.1.4203.666.5.16).

Settings can also come from a config file (--config) or from LDAPDEREF_*
environment variables, e.g. LDAPDEREF_FORMAT=base64.
`

// NewRootCmd returns the ldapderef command with all its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "ldapderef",
		Short:         "Encode and decode LDAP dereference control values",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file of ldapderef")
	rootCmd.PersistentFlags().BoolVarP(&opts.debugModeOn, "debug", "d", false, "turn on debug mode")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatHex, fmt.Sprintf("value encoding, the possible values can be %v", supportedFormats))
	_ = v.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(NewEncodeCmd(v), NewDecodeCmd(v))
	rootCmd.DisableAutoGenTag = true
	return rootCmd
}

// Execute runs the ldapderef command. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("ldapderef: %v", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, opts *rootOpts) error {
	v.SetEnvPrefix("LDAPDEREF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.cfgFile != "" {
		v.SetConfigFile(opts.cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %v", opts.cfgFile, err)
		}
	}

	logrus.SetLevel(logrus.InfoLevel)
	if v.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Debugf("using value format %s", v.GetString("format"))
	return nil
}
