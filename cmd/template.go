package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bulklogin/internal/observability"
	"github.com/xkilldash9x/bulklogin/internal/workbook"
)

const defaultTemplateFile = "bulklogin_template.xlsx"

// newTemplateCmd creates the `template` command, which writes an example input workbook.
func newTemplateCmd() *cobra.Command {
	var output string

	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Writes an example input workbook with the recognized column headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workbook.WriteTemplate(output); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}
			observability.GetLogger().Info("Template written.", zap.String("path", output))
			fmt.Fprintf(cmd.OutOrStdout(), "Şablon oluşturuldu: %s\n", output)
			return nil
		},
	}
	templateCmd.Flags().StringVarP(&output, "output", "o", defaultTemplateFile, "path of the template workbook")
	return templateCmd
}
