package toolsearch

import (
	"encoding/json"
	"io"
	"os"

	"github.com/ashwinyue/tool-search/internal/model"
)

// LoadToolsFromJSON 从文件加载工具列表
func LoadToolsFromJSON(path string) ([]model.Tool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(err, CodeFileLoad, "failed to load tools from JSON")
	}
	defer f.Close()
	return DecodeTools(f)
}

// DecodeTools 解析工具列表 JSON 数组
func DecodeTools(r io.Reader) ([]model.Tool, error) {
	var tools []model.Tool
	if err := json.NewDecoder(r).Decode(&tools); err != nil {
		return nil, wrapError(err, CodeFileLoad, "failed to load tools from JSON")
	}
	for i := range tools {
		if tools[i].Parameters == nil {
			tools[i].Parameters = []model.ToolParameter{}
		}
	}
	return tools, nil
}

// LoadToolkitFromJSON 从文件加载工具包
func LoadToolkitFromJSON(path string) (*model.Toolkit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(err, CodeFileLoad, "failed to load toolkit from JSON")
	}
	defer f.Close()
	return DecodeToolkit(f)
}

// DecodeToolkit 解析工具包 JSON，工具包的 toolkit_id 与 name 写入每个工具
func DecodeToolkit(r io.Reader) (*model.Toolkit, error) {
	var toolkit model.Toolkit
	if err := json.NewDecoder(r).Decode(&toolkit); err != nil {
		return nil, wrapError(err, CodeFileLoad, "failed to load toolkit from JSON")
	}
	for i := range toolkit.Tools {
		toolkit.Tools[i].ToolkitID = toolkit.ToolkitID
		toolkit.Tools[i].ToolkitName = toolkit.Name
		if toolkit.Tools[i].Parameters == nil {
			toolkit.Tools[i].Parameters = []model.ToolParameter{}
		}
	}
	if toolkit.Tools == nil {
		toolkit.Tools = []model.Tool{}
	}
	return &toolkit, nil
}
