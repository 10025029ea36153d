package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vjeantet/ldapderef"
)

type decodeOpts struct {
	control bool
	dump    bool
}

var exampleForDecodeCmd = `
  ldapderef decode 3012301004076d616e616765720405636e3d4a6f
  echo MBIwEAQHbWFuYWdlcgQFY249Sm8= | ldapderef decode --format base64
`

func NewDecodeCmd(v *viper.Viper) *cobra.Command {
	opts := &decodeOpts{}
	decodeCmd := &cobra.Command{
		Use:     "decode [VALUE]",
		Short:   "Decode a dereference response control value",
		Long:    "Decode a dereference response control value, read from the argument or from stdin.",
		Example: exampleForDecodeCmd,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read value from stdin: %v", err)
				}
				text = string(in)
			}

			data, err := parseValue(v.GetString("format"), text)
			if err != nil {
				return fmt.Errorf("input value is invalid: %v", err)
			}
			if opts.dump {
				packet, err := ber.DecodePacketErr(data)
				if err != nil {
					return err
				}
				ber.WritePacket(cmd.ErrOrStderr(), packet)
			}

			var results []ldapderef.DerefRes
			if opts.control {
				packet, err := ber.DecodePacketErr(data)
				if err != nil {
					return fmt.Errorf("input value is not a control: %v", err)
				}
				ctrl, err := ldapderef.DecodeControlPacket(packet)
				if err != nil {
					return err
				}
				results = ctrl.Results
			} else if results, err = ldapderef.DecodeResultValue(data); err != nil {
				return err
			}
			logrus.Debugf("decoded %d dereference results", len(results))

			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	decodeCmd.Flags().BoolVar(&opts.control, "control", false, "the input is a whole Control instead of its value")
	decodeCmd.Flags().BoolVar(&opts.dump, "dump", false, "print the BER structure on stderr")
	return decodeCmd
}

func printResults(out io.Writer, results []ldapderef.DerefRes) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"DerefAttr", "DerefVal", "Type", "Value"})
	table.SetAutoWrapText(false)
	for _, res := range results {
		if len(res.AttrVals) == 0 {
			table.Append([]string{res.DerefAttr, res.DerefVal, "", ""})
			continue
		}
		for _, attr := range res.AttrVals {
			for _, val := range attr.Vals {
				table.Append([]string{res.DerefAttr, res.DerefVal, attr.Type, printable(val)})
			}
		}
	}
	table.Render()
}

func printable(val []byte) string {
	if utf8.Valid(val) && !strings.ContainsRune(string(val), 0) {
		return string(val)
	}
	return fmt.Sprintf("%q", val)
}
