package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
	imageBase64Property = map[string]interface{}{
		"type":        "string",
		"description": "Base64 encoded image, optionally as a data: URL. Used when path is not given",
	}
	resultProperty = map[string]interface{}{
		"type":        []string{"object", "array", "string"},
		"description": "Detection result: {\"objects\": [...]}, a bare array of objects, or either as a JSON string. Each object may carry bbox [x1,y1,x2,y2], category, score, mask {counts,size}, pose_keypoints, hand_keypoints and caption",
	}
)

func showProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Draw " + what + ". Defaults to the server setting",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Images
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Detection results
		{
			Name:        "detection_visualize",
			Description: "Draw a detection result onto an image: boxes with category labels, translucent masks, body and hand skeletons, and captions. Returns a base64 PNG (or writes output_path) plus a per-object stage report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty,
					"image_base64": imageBase64Property,
					"result":       resultProperty,
					"show_bbox":    showProperty("bounding boxes and labels"),
					"show_mask":    showProperty("segmentation masks"),
					"show_pose":    showProperty("body pose skeletons"),
					"show_hand":    showProperty("hand skeletons"),
					"show_caption": showProperty("captions"),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Write the annotated image here instead of returning it. The extension selects the format",
					},
				},
				"required": []string{"result"},
			},
		},
		{
			Name:        "detection_summarize",
			Description: "Summarize a detection result as text, e.g. \"Detected 3 objects: 2 person, 1 dog\".",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"result": resultProperty,
				},
				"required": []string{"result"},
			},
		},
		{
			Name:        "detection_crop_object",
			Description: "Crop one detected object's bounding box out of the image and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty,
					"image_base64": imageBase64Property,
					"result":       resultProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the object in the result (0-based)",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side of the box. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). The result may be at most 8192 pixels per side. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"result", "index"},
			},
		},
		{
			Name:        "mask_decode",
			Description: "Decode a run-length encoded mask (COCO compressed string or integer counts) and return its area and a black and white PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask": map[string]interface{}{
						"type":        "object",
						"description": "{\"counts\": string or [int], \"size\": [height, width]}",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Resize the decoded mask to this height. Defaults to the encoded size",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Resize the decoded mask to this width. Defaults to the encoded size",
					},
				},
				"required": []string{"mask"},
			},
		},

		// Session analytics
		{
			Name:        "analytics_ingest",
			Description: "Add one detection result to the session analytics: category counts, per-frame history, confidence history and detection latency.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"result": resultProperty,
					"detection_time": map[string]interface{}{
						"type":        "number",
						"description": "Seconds the detection took, at most 3600. Omit when unknown",
					},
				},
				"required": []string{"result"},
			},
		},
		{
			Name:        "analytics_top_objects",
			Description: "Return the n most frequent categories of the session, most frequent first. Ties keep the order categories were first seen.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"n": map[string]interface{}{
						"type":        "integer",
						"description": "Number of categories. Default 5",
						"default":     DefaultTopObjects,
					},
				},
			},
		},
		{
			Name:        "analytics_report",
			Description: "Return the full session analytics: counts, history, timeline, average confidence per category and latency statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "analytics_reset",
			Description: "Clear the session analytics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
