package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"paysheet/internal/formula"
	"paysheet/internal/model"
	"paysheet/internal/parser"
	"paysheet/internal/reader"
	"paysheet/internal/sink"
)

// ReplicateOptions 考勤公式复制选项
type ReplicateOptions struct {
	// FilePath 考勤工作簿
	FilePath string
	Filename string
	// TemplatePath 模板工作簿，为空时使用配置中的模板
	TemplatePath string
}

// Replicate 异步执行公式复制，返回进度通道
func (c *Coordinator) Replicate(ctx context.Context, opts ReplicateOptions) <-chan ProgressEvent {
	return c.stream(ctx, func(ctx context.Context, emit emitter) (*Report, error) {
		return c.replicate(ctx, opts, emit)
	})
}

// RunReplicate 同步执行公式复制
func (c *Coordinator) RunReplicate(ctx context.Context, opts ReplicateOptions) (*Report, error) {
	return c.replicate(ctx, opts, nil)
}

func (c *Coordinator) replicate(ctx context.Context, opts ReplicateOptions, emit emitter) (*Report, error) {
	start := time.Now()
	filename := displayName(opts.Filename, opts.FilePath)

	templatePath := strings.TrimSpace(opts.TemplatePath)
	if templatePath == "" {
		templatePath = strings.TrimSpace(c.settings.TemplatePath)
	}
	if templatePath == "" {
		return nil, ErrNoTemplate
	}

	run, err := c.newRun(model.RunKindReplicate, filename)
	if err != nil {
		return nil, err
	}
	log := c.logger.With(zap.String("run_id", run.ID), zap.String("file", filename))

	emit.send("start", "开始复制考勤公式", map[string]string{"filename": filename, "runId": run.ID})

	report, err := c.doReplicate(ctx, run, opts.FilePath, templatePath, emit, log)
	if report != nil {
		report.Duration = time.Since(start)
	}
	c.finishRun(run, report, err)
	if err != nil {
		log.Error("replicate failed", zap.Error(err))
		return nil, err
	}

	log.Info("replicate done",
		zap.String("sheet", report.SheetName),
		zap.Int("rows", report.Rows),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (c *Coordinator) doReplicate(ctx context.Context, run *model.Run, filePath, templatePath string, emit emitter, log *zap.Logger) (*Report, error) {
	wb, err := reader.Open(filePath, log)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) == 0 {
		return nil, reader.ErrNoSheets
	}
	roles := parser.ResolveRoles(wb.Recognize(c.recognizer), c.settings.Preferred)
	sheet := roles.Attendance
	var attendance []parser.RawRow
	if sheet == "" {
		// 未识别出考勤表时取第一个 sheet
		sheet, attendance, err = wb.ReadSheetAt(0, reader.Keyed)
		roles.Attendance = sheet
	} else {
		attendance, err = wb.ReadSheet(sheet, reader.Keyed)
	}
	if err != nil {
		return nil, err
	}
	emit.send("sheet_done", fmt.Sprintf("考勤表 %s: %d 行", sheet, len(attendance)), map[string]any{
		"sheet_name": sheet,
		"rows":       len(attendance),
	})

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	tpl, err := reader.Open(templatePath, log)
	if err != nil {
		return nil, err
	}
	template, err := tpl.TemplateRow(c.settings.MasterSheet, c.settings.FormulaSourceRow)
	tpl.Close()
	if err != nil {
		return nil, err
	}

	generated := formula.NewReplicator(c.settings.Policy).
		ReplicateWithHeader(attendanceHeader(attendance, template), template, len(attendance))
	values := make([][]any, 0, len(generated))
	values = append(values, generated[0])
	for i, g := range generated[1:] {
		values = append(values, mergeRow(g, attendance[i]))
	}

	out, err := sink.NewExcelSink(sink.Options{
		TemplatePath: templatePath,
		MasterSheet:  c.settings.MasterSheet,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	defer out.Close()

	if err := out.DuplicateTemplate(run.SheetName); err != nil {
		return nil, err
	}
	if err := out.WriteRows(run.SheetName, "A1", values); err != nil {
		return nil, err
	}
	if err := out.AutoResizeColumns(run.SheetName); err != nil {
		return nil, err
	}
	outputPath, err := c.save(out, run.SheetName)
	if err != nil {
		return nil, err
	}
	emit.send("info", fmt.Sprintf("已写入 %s", run.SheetName), map[string]string{"sheet_name": run.SheetName})

	return &Report{
		RunID:      run.ID,
		Kind:       run.Kind,
		Filename:   run.Filename,
		SheetName:  run.SheetName,
		OutputPath: outputPath,
		Roles:      roles,
		Rows:       len(generated) - 1,
	}, nil
}

// attendanceHeader 数据列使用考勤表表头；模板公式列留空以保留模板表头
func attendanceHeader(rows []parser.RawRow, template formula.TemplateRow) formula.TemplateRow {
	var keys []string
	if len(rows) > 0 {
		keys = rows[0].Keys()
	}
	width := len(keys)
	if len(template) > width {
		width = len(template)
	}
	header := make(formula.TemplateRow, width)
	for i := 0; i < width; i++ {
		if i < len(template) && formula.IsFormula(template[i]) {
			continue
		}
		if i < len(keys) {
			header[i] = keys[i]
		}
	}
	return header
}

// mergeRow 模板公式列取复制结果；其余列优先取考勤数据，为空时沿用模板值（首列即序号）
func mergeRow(generated formula.TemplateRow, data parser.RawRow) []any {
	width := len(generated)
	if data.Len() > width {
		width = data.Len()
	}
	row := make([]any, width)
	for i := 0; i < width; i++ {
		var tpl any
		if i < len(generated) {
			tpl = generated[i]
		}
		if str, ok := tpl.(string); ok && formula.IsFormula(str) {
			row[i] = sink.Formula(str)
			continue
		}
		if v, ok := data.ValueAt(i); ok && !parser.IsBlank(v) {
			row[i] = v
			continue
		}
		if !parser.IsBlank(tpl) {
			row[i] = tpl
		}
	}
	return row
}
