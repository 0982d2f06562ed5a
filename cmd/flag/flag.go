package flag

import (
	"github.com/spf13/cobra"
)

func TenantID(cmd *cobra.Command, conf *string) {
	cmd.Flags().StringVarP(conf, "tenant-id", "t", "", "Tenant id")
	_ = cmd.MarkFlagRequired("tenant-id")
}
