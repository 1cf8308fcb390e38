// Package sdk is the embedded neurapipe client for in-process use: it wires
// the enrichment pipelines, the inference gateway, and the hybrid ranking
// engine without the HTTP server, for bulk and precompute-style callers.
//
// Basic usage:
//
//	client, err := sdk.New(ctx,
//		sdk.WithOpenAI(apiKey, ""),
//		sdk.WithPipeline("text_embedding", sdk.PipelineSpec{
//			Model:    "text-embedding-3-small",
//			FieldMap: []sdk.FieldMapping{{Source: "title", Target: "title_embedding"}},
//		}),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	enriched, err := client.Enrich(ctx, "text_embedding", map[string]any{"title": "hello"})
package sdk
