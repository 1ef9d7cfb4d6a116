package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go-payroll/internal/config"
	"go-payroll/internal/migration"
	"go-payroll/internal/payslip"
	"go-payroll/internal/shared/connection"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// NewRootCommand builds the payrollctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Offline payslip calculator and schema tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newCompileCommand(), newMigrateCommand())
	return root
}

func newCompileCommand() *cobra.Command {
	var (
		file   string
		year   int
		month  int
		lop    int
		format string
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a payslip from a structure file without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			structure, err := loadStructureFile(file)
			if err != nil {
				return err
			}

			p, err := payslip.Compile(structure, payslip.CompileInput{
				EmployeeID: structure.EmployeeID.String(),
				Year:       year,
				Month:      month,
				LOPDays:    lop,
			})
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), format, payslip.ToResponse(p))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "structure YAML file")
	cmd.Flags().IntVar(&year, "year", 0, "payroll year")
	cmd.Flags().IntVar(&month, "month", 0, "payroll month (1-12)")
	cmd.Flags().IntVar(&lop, "lop", 0, "loss of pay days")
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the payroll tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := connection.ConnectGORMWithRetry(cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := migration.Run(context.Background(), db, zap.L()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
