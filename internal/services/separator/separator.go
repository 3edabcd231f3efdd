// Package separator wraps the audio-separator CLI to isolate stems (vocals,
// instrumental) before transcription. Separation is a best-effort quality
// stage: the pipeline falls back to the original audio when it fails.
package separator

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// Binary is the audio-separator executable name resolved from PATH.
const Binary = "audio-separator"

// Model describes an available separation model and its quality score.
type Model struct {
	Filename   string
	Name       string
	Stems      []string
	SDR        float64
	HasSDR     bool
	TargetStem string
}

// Request describes one separation invocation.
type Request struct {
	AudioPath      string
	OutputDir      string
	Model          string
	OutputFormat   string
	SampleRate     int
	AutoSelectBest bool
	StemType       string
}

// Result reports separation outputs and any model substitution performed.
type Result struct {
	Stems          map[string]string
	RequestedModel string
	ActualModel    string
	ModelSwitched  bool
}

// Service invokes the audio-separator CLI.
type Service struct {
	logger *slog.Logger
	run    services.CommandRunner
}

// NewService constructs a separator service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logging.WithComponent(logger, "separator"),
		run:    services.RunCommand,
	}
}

// WithCommandRunner overrides how commands are executed (for tests).
func (s *Service) WithCommandRunner(run services.CommandRunner) {
	if s != nil && run != nil {
		s.run = run
	}
}

// ListModels returns the models the CLI knows about, optionally filtered by
// stem type.
func (s *Service) ListModels(ctx context.Context, filterStem string, limit int) ([]Model, error) {
	args := []string{"-l", "--list_format=json"}
	if filterStem != "" {
		args = append(args, "--list_filter", filterStem)
	}
	if limit > 0 {
		args = append(args, "--list_limit", strconv.Itoa(limit))
	}
	output, err := s.run(ctx, Binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrCommandFailed, "separate-audio", "list models", "", err)
	}
	models, err := parseModelList(output)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "separate-audio", "list models", "model catalog json", err)
	}
	return models, nil
}

// BestModelForStem returns the highest-SDR model serving the given stem.
func (s *Service) BestModelForStem(ctx context.Context, stemType string) (Model, bool, error) {
	models, err := s.ListModels(ctx, stemType, 0)
	if err != nil {
		return Model{}, false, err
	}
	ranked := rankBySDR(models)
	if len(ranked) == 0 {
		return Model{}, false, nil
	}
	return ranked[0], true, nil
}

// Separate runs stem separation. Unknown model identifiers are substituted
// with the best-scoring model for the requested stem type; the substitution
// is reported in the result, not hidden.
func (s *Service) Separate(ctx context.Context, req Request) (Result, error) {
	result := Result{RequestedModel: req.Model}

	if _, err := os.Stat(req.AudioPath); err != nil {
		return result, services.Wrap(services.ErrNotFound, "separate-audio", "input audio", req.AudioPath, err)
	}

	filename, switched, err := s.resolveModel(ctx, req)
	if err != nil {
		return result, err
	}
	result.ActualModel = filename
	result.ModelSwitched = switched
	if switched {
		s.logger.Warn("requested model not recognized, substituting best for stem",
			logging.String("requested", req.Model),
			logging.String("actual", filename),
			logging.String("stem", req.StemType))
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrCommandFailed, "separate-audio", "create output dir", req.OutputDir, err)
	}

	args := []string{
		req.AudioPath,
		"--model_filename", filename,
		"--output_dir", req.OutputDir,
		"--output_format", req.OutputFormat,
		"--sample_rate", strconv.Itoa(req.SampleRate),
	}
	if _, err := s.run(ctx, Binary, args...); err != nil {
		return result, services.Wrap(services.ErrCommandFailed, "separate-audio", "audio-separator", req.AudioPath, err)
	}

	stems, err := collectStems(req.AudioPath, req.OutputDir)
	if err != nil {
		return result, err
	}
	result.Stems = stems
	return result, nil
}

// resolveModel maps the requested identifier to a model filename, falling
// back to the best model for the stem when the identifier is unknown.
func (s *Service) resolveModel(ctx context.Context, req Request) (string, bool, error) {
	models, err := s.ListModels(ctx, "", 0)
	if err != nil {
		return "", false, err
	}

	if req.AutoSelectBest {
		if best, ok := bestFor(models, req.StemType); ok {
			return best.Filename, false, nil
		}
	}

	requested := strings.TrimSpace(req.Model)
	for _, model := range models {
		if strings.EqualFold(requested, model.Name) || requested == model.Filename {
			return model.Filename, false, nil
		}
	}

	if best, ok := bestFor(models, req.StemType); ok {
		return best.Filename, true, nil
	}

	// Nothing matched and no ranked fallback exists; pass the identifier
	// through and let the tool decide.
	return requested, false, nil
}

func bestFor(models []Model, stemType string) (Model, bool) {
	candidates := make([]Model, 0, len(models))
	for _, model := range models {
		if modelServesStem(model, stemType) {
			candidates = append(candidates, model)
		}
	}
	ranked := rankBySDR(candidates)
	if len(ranked) == 0 {
		return Model{}, false
	}
	return ranked[0], true
}

func modelServesStem(model Model, stemType string) bool {
	if stemType == "" {
		return true
	}
	for _, stem := range model.Stems {
		if strings.EqualFold(stem, stemType) {
			return true
		}
	}
	return strings.EqualFold(model.TargetStem, stemType)
}

func rankBySDR(models []Model) []Model {
	ranked := make([]Model, len(models))
	copy(ranked, models)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].HasSDR != ranked[j].HasSDR {
			return ranked[i].HasSDR
		}
		return ranked[i].SDR > ranked[j].SDR
	})
	return ranked
}

// parseModelList flattens the CLI's architecture-keyed catalog into a model
// slice. The JSON nests models under architecture names (VR, MDX, Demucs,
// MDXC) with per-stem SDR scores.
func parseModelList(data []byte) ([]Model, error) {
	var catalog map[string]map[string]struct {
		Filename   string   `json:"filename"`
		Stems      []string `json:"stems"`
		TargetStem string   `json:"target_stem"`
		Scores     map[string]struct {
			SDR float64 `json:"SDR"`
		} `json:"scores"`
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}

	var models []Model
	for _, archModels := range catalog {
		for name, info := range archModels {
			if info.Filename == "" {
				continue
			}
			model := Model{
				Filename:   info.Filename,
				Name:       name,
				Stems:      info.Stems,
				TargetStem: info.TargetStem,
			}
			for _, score := range info.Scores {
				if !model.HasSDR || score.SDR > model.SDR {
					model.SDR = score.SDR
					model.HasSDR = true
				}
			}
			models = append(models, model)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// collectStems maps the separator's output files to stem names by file name
// convention: the tool appends the stem in parentheses or underscores.
func collectStems(audioPath, outputDir string) (map[string]string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "separate-audio", "output dir", outputDir, err)
	}
	stems := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		lower := strings.ToLower(name)
		path := filepath.Join(outputDir, name)
		switch {
		case strings.Contains(lower, "vocal"):
			stems["vocals"] = path
		case strings.Contains(lower, "instrumental"):
			stems["instrumental"] = path
		default:
			key := strings.TrimSuffix(strings.TrimPrefix(name, base), filepath.Ext(name))
			stems[strings.Trim(strings.ToLower(key), "_()- ")] = path
		}
	}
	if len(stems) == 0 {
		return nil, services.Wrap(services.ErrBackend, "separate-audio", "collect stems", "separator produced no output files", nil)
	}
	return stems, nil
}
