package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"paysheet/internal/config"
	"paysheet/internal/formula"
	"paysheet/internal/parser"
	"paysheet/internal/reader"
)

// SettingsFromConfig 由应用配置构建处理参数；alias_file 存在时合并到内置别名表
func SettingsFromConfig(cfg *config.AppConfig, exportDir string) (Settings, error) {
	mode, err := reader.ParseHeaderMode(cfg.Payroll.HeaderMode)
	if err != nil {
		return Settings{}, err
	}
	policy, err := formula.ParsePolicy(cfg.Sink.ReferencePolicy)
	if err != nil {
		return Settings{}, err
	}

	var aliases parser.AliasRules
	if p := strings.TrimSpace(cfg.Payroll.AliasFile); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(config.ResolveDataDir(cfg), p)
		}
		aliases, err = parser.LoadAliasFile(p)
		if err != nil {
			return Settings{}, fmt.Errorf("payroll.alias_file: %w", err)
		}
	}

	return Settings{
		ComponentMarker: cfg.Payroll.ComponentMarker,
		DaysMarker:      cfg.Payroll.DaysMarker,
		Strict:          cfg.Payroll.Strict,
		Preferred: parser.PreferredSheets{
			Roster:     cfg.Payroll.RosterSheet,
			Salary:     cfg.Payroll.SalarySheet,
			Attendance: cfg.Payroll.AttendanceSheet,
		},
		HeaderMode:       mode,
		Aliases:          aliases,
		TemplatePath:     cfg.Sink.TemplatePath,
		MasterSheet:      cfg.Sink.MasterSheet,
		SheetPrefix:      cfg.Sink.SheetPrefix,
		FormulaSourceRow: cfg.Sink.FormulaSourceRow,
		FormulaStartCol:  cfg.Sink.FormulaStartCol,
		FormulaEndCol:    cfg.Sink.FormulaEndCol,
		Policy:           policy,
		ExportDir:        exportDir,
	}, nil
}
