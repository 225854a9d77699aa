package generation

import "google.golang.org/genai"

// DedupeSources drops citations whose URI was already seen, keeping the
// first title and the order of first appearance. Citations without a URI
// are dropped.
func DedupeSources(sources []Source) []Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.URI == "" {
			continue
		}
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// sourcesOf collects web citations from every candidate of resp.
func sourcesOf(resp *genai.GenerateContentResponse) []Source {
	if resp == nil {
		return nil
	}
	var out []Source
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			out = append(out, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out
}
