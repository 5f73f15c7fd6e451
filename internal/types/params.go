package types

import (
  "fmt"

  json "github.com/goccy/go-json"
  "gorm.io/datatypes"
)

const (
  DefaultTemperature = 0.7
  DefaultTopP        = 0.9
  DefaultTopK        = 40
  DefaultMaxTokens   = 2048
)

// GenerationParams are the per-conversation sampling knobs sent with every
// inference request.
type GenerationParams struct {
  Temperature float64 `json:"temperature"`
  TopP        float64 `json:"top_p"`
  TopK        int     `json:"top_k"`
  MaxTokens   int     `json:"max_tokens"`
}

func DefaultGenerationParams() GenerationParams {
  return GenerationParams{
    Temperature: DefaultTemperature,
    TopP:        DefaultTopP,
    TopK:        DefaultTopK,
    MaxTokens:   DefaultMaxTokens,
  }
}

// storedParams mirrors GenerationParams with optional fields so a partial
// blob keeps whatever it has and defaults the rest.
type storedParams struct {
  Temperature *float64 `json:"temperature"`
  TopP        *float64 `json:"top_p"`
  TopK        *int     `json:"top_k"`
  MaxTokens   *int     `json:"max_tokens"`
}

// ParamsFromJSON decodes a stored model_parameters blob. Missing fields take
// their defaults. A blob that cannot be decoded at all yields the full
// defaults together with ErrMalformedParams; callers log that and carry on,
// they never propagate it.
func ParamsFromJSON(raw datatypes.JSON) (GenerationParams, error) {
  out := DefaultGenerationParams()
  if len(raw) == 0 {
    return out, nil
  }
  var sp storedParams
  if err := json.Unmarshal(raw, &sp); err != nil {
    return DefaultGenerationParams(), fmt.Errorf("%w: %v", ErrMalformedParams, err)
  }
  if sp.Temperature != nil {
    out.Temperature = *sp.Temperature
  }
  if sp.TopP != nil {
    out.TopP = *sp.TopP
  }
  if sp.TopK != nil {
    out.TopK = *sp.TopK
  }
  if sp.MaxTokens != nil {
    out.MaxTokens = *sp.MaxTokens
  }
  return out, nil
}

// ToJSON serializes p for the model_parameters column.
func (p GenerationParams) ToJSON() (datatypes.JSON, error) {
  raw, err := json.Marshal(p)
  if err != nil {
    return nil, fmt.Errorf("marshal generation params: %w", err)
  }
  return datatypes.JSON(raw), nil
}
