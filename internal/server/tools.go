package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "coin_prep_directory",
			Description: "Convert every image in a directory into a 92x92 PNG coin icon with a transparent background. " +
				"Returns a summary with one entry per source file. Failed files are reported, not fatal, unless fail_fast is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source":      pathProperty("Directory of raw coin photos. Defaults to the configured source."),
					"destination": pathProperty("Directory for the icons. Created if missing. Defaults to the configured destination."),
					"ghost": map[string]interface{}{
						"type":        "boolean",
						"description": "Also write a faded copy named <name>_25.png",
						"default":     false,
					},
					"fail_fast": map[string]interface{}{
						"type":        "boolean",
						"description": "Stop at the first file that fails",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "coin_prep_image",
			Description: "Convert a single coin photo into a 92x92 PNG icon and return the written paths.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the coin photo"),
					"destination": pathProperty("Directory for the icon. Defaults to the configured destination."),
					"ghost": map[string]interface{}{
						"type":        "boolean",
						"description": "Also write a faded copy",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "coin_sample_seed",
			Description: "Report the color at the background seed pixel of a photo. " +
				"If it is not the backdrop color, the coin touches the seed and background removal will go wrong.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the coin photo"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Seed X coordinate. Defaults to the configured seed.",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Seed Y coordinate. Defaults to the configured seed.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_info",
			Description: "Get dimensions, format, color depth and alpha support of an image file without decoding its pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
	}
}
