package elasticsearch

// NewsIndex returns the definition of the news index: one shard, one replica
// and a custom default analyzer (standard tokenizer, lowercase, asciifolding
// and word_delimiter filters, html_strip char filter).
func NewsIndex() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"default": defaultAnalyzer(),
				},
			},
		},
		"mappings": newsMappings(),
	}
}

// AutocompleteIndex returns an index definition that adds an edge n-gram
// "auto-complete" analyzer (grams of 3 to 8 characters) next to the default one.
func AutocompleteIndex() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					// No "standard" token filter: it was a no-op and Elasticsearch 7 removed it.
					"auto-complete": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "auto-complete-filter"},
					},
					"default": defaultAnalyzer(),
				},
				"filter": map[string]any{
					"auto-complete-filter": map[string]any{
						"type":     "edge_ngram",
						"min_gram": 3,
						"max_gram": 8,
					},
				},
			},
		},
		"mappings": newsMappings(),
	}
}

func defaultAnalyzer() map[string]any {
	return map[string]any{
		"type":        "custom",
		"tokenizer":   "standard",
		"filter":      []string{"lowercase", "asciifolding", "word_delimiter"},
		"char_filter": []string{"html_strip"},
	}
}

// newsMappings maps the fields of core.News.
func newsMappings() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"newsId": map[string]any{"type": "keyword"},
			"newsTitle": map[string]any{
				"type": "text",
				"fields": map[string]any{
					"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
				},
			},
			"newsUrl": map[string]any{"type": "keyword"},
		},
	}
}

// MatchQuery builds a full-text match query on a single field.
func MatchQuery(field, text string) map[string]any {
	return map[string]any{
		"match": map[string]any{
			field: map[string]any{
				"query": text,
			},
		},
	}
}
