package feeimport

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// UploadResult is what the upload step returns to the confirmation screen.
type UploadResult struct {
	ImportType  ImportType `json:"import_type"`
	Encoding    Encoding   `json:"encoding,omitempty"`
	RowsParsed  int        `json:"rows_parsed"`
	BlankRows   int        `json:"blank_rows"`
	Truncated   bool       `json:"truncated"`
	Notices     []string   `json:"notices"`
	Records     []Record   `json:"records"`
	Errors      []string   `json:"errors"`
	PreviewData string     `json:"preview_data,omitempty"`
}

// Pipeline runs one upload from intake to preview. Staged and transcoded
// files never outlive the call.
type Pipeline struct {
	cfg        Config
	intake     *Intake
	normalizer *Normalizer
	parser     *Parser
	log        *zap.Logger
}

func NewPipeline(cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		intake:     NewIntake(cfg, log),
		normalizer: NewNormalizer(cfg.StagingDir, log),
		parser:     NewParser(cfg.MaxRows, log),
		log:        log,
	}
}

// Upload stages, decodes, parses and validates src. When rows fail
// validation the result still carries the row errors alongside a
// RowValidationError.
func (p *Pipeline) Upload(t ImportType, filename string, size int64, src io.Reader) (*UploadResult, error) {
	staged, err := p.intake.Stage(filename, size, src)
	if err != nil {
		p.log.Warn("upload rejected", zap.String("file", filename), zap.Int64("declared_bytes", size), zap.Error(err))
		return nil, err
	}
	log := p.log.With(zap.String("file", filename), zap.String("sha256", staged.SHA256), zap.String("import_type", string(t)))
	defer func() {
		if err := staged.Remove(); err != nil {
			log.Error("staged file not removed", zap.String("path", staged.Path), zap.Error(err))
		}
	}()

	norm, err := p.normalizer.Normalize(staged)
	if err != nil {
		log.Warn("upload could not be decoded", zap.Error(err))
		return nil, err
	}
	defer func() {
		if err := norm.Cleanup(); err != nil {
			log.Error("transcoded file not removed", zap.String("path", norm.Path), zap.Error(err))
		}
	}()

	parsed, err := p.parser.Parse(norm.Path, staged.Ext)
	if err != nil {
		log.Warn("upload could not be parsed", zap.Error(err))
		return nil, err
	}
	if len(parsed.Rows) == 0 {
		return nil, newError(KindMalformedFile, "file has a header but no data rows", nil)
	}

	v := ValidateRows(t, parsed.Rows, p.cfg.AcceptValidRows)
	res := &UploadResult{
		ImportType: t,
		Encoding:   norm.Encoding,
		RowsParsed: len(parsed.Rows),
		BlankRows:  parsed.BlankRows,
		Truncated:  parsed.Truncated,
		Notices:    append([]string{}, parsed.Notices...),
		Records:    v.Records,
		Errors:     append([]string{}, v.Errors...),
	}
	if res.Records == nil {
		res.Records = []Record{}
	}
	if parsed.Delimiter == ';' && hasCommaAmount(parsed.Rows) {
		log.Warn("semicolon-delimited file has commas in amounts")
		res.Notices = append(res.Notices, "commas in amounts are read as thousands separators, so 1,5 is read as 15; use a point for decimals")
	}
	if v.Rejected > 0 {
		log.Info("rows failed validation", zap.Int("rejected", v.Rejected), zap.Int("rows", len(parsed.Rows)))
	}
	if len(v.Records) == 0 {
		return res, newError(KindRowValidation, fmt.Sprintf("%d of %d rows failed validation", v.Rejected, len(parsed.Rows)), nil)
	}
	if v.Rejected > 0 {
		res.Notices = append(res.Notices, fmt.Sprintf("%d rows with errors were left out of the preview", v.Rejected))
	}

	res.PreviewData, err = EncodePreview(t, v.Records)
	if err != nil {
		return nil, newError(KindMalformedFile, "preview could not be built", err)
	}
	log.Info("upload ready for preview",
		zap.String("encoding", string(norm.Encoding)),
		zap.Int("records", len(v.Records)),
		zap.Int("blank_rows", parsed.BlankRows),
		zap.Bool("truncated", parsed.Truncated),
	)
	return res, nil
}

// hasCommaAmount reports whether any amount cell holds a comma.
func hasCommaAmount(rows []ImportRow) bool {
	for _, row := range rows {
		for _, col := range []string{ColFeeAmount, ColFeePerRoom} {
			if v, ok := row.Get(col); ok && strings.Contains(v, ",") {
				return true
			}
		}
	}
	return false
}
