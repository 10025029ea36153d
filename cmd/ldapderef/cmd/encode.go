package cmd

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vjeantet/ldapderef"
)

type encodeOpts struct {
	critical bool
	control  bool
	dump     bool
}

var longEncodeCmdDescription = `Encode a dereference specification into the request control value.

SPEC lists the DN-valued attributes to dereference and, for
each, the attributes to return from the referenced entry:

  derefAttr:attr1,attr2;derefAttr2:attr3`

var exampleForEncodeCmd = `
  ldapderef encode "manager:cn,mail;secretary:uid"
  ldapderef encode --control --critical "member:cn" --format base64
`

func NewEncodeCmd(v *viper.Viper) *cobra.Command {
	opts := &encodeOpts{}
	encodeCmd := &cobra.Command{
		Use:     "encode SPEC",
		Short:   "Encode a dereference specification",
		Long:    longEncodeCmdDescription,
		Example: exampleForEncodeCmd,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ldapderef.NewControlDereferenceFromString(v.GetBool("critical"), args[0])
			if err != nil {
				return err
			}
			logrus.Debugf("encoding %d dereference specs", len(ctrl.Specs))

			var data []byte
			if opts.control {
				data = ctrl.Encode().Bytes()
			} else if data, err = ldapderef.EncodeRequestValue(ctrl.Specs); err != nil {
				return err
			}

			out, err := formatValue(v.GetString("format"), data)
			if err != nil {
				return err
			}
			if opts.dump {
				packet, err := ber.DecodePacketErr(data)
				if err != nil {
					return err
				}
				ber.WritePacket(cmd.ErrOrStderr(), packet)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	encodeCmd.Flags().BoolVar(&opts.critical, "critical", false, "mark the control as critical (with --control)")
	encodeCmd.Flags().BoolVar(&opts.control, "control", false, "output the whole Control instead of its value")
	encodeCmd.Flags().BoolVar(&opts.dump, "dump", false, "print the BER structure on stderr")
	_ = v.BindPFlag("critical", encodeCmd.Flags().Lookup("critical"))
	return encodeCmd
}
