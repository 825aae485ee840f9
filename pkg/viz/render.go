// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package viz

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
)

// Renderer turns a spec into a self-contained document.
type Renderer interface {
	Render(spec *Spec) (string, error)
}

// HTMLRenderer produces a standalone HTML page that draws the spec with
// ECharts loaded from a CDN. The table pattern renders as plain HTML.
type HTMLRenderer struct{}

// NewHTMLRenderer creates an HTML renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

func (r *HTMLRenderer) Render(spec *Spec) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("spec is nil")
	}
	if spec.Pattern == "table" {
		return r.renderTable(spec), nil
	}
	option, err := echartsOption(spec)
	if err != nil {
		return "", err
	}
	optionJSON, err := json.Marshal(option)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart option: %w", err)
	}

	var sb strings.Builder
	writeHead(&sb, spec.Title, true)
	sb.WriteString(`    <div class="container">
        <h1>` + html.EscapeString(spec.Title) + `</h1>
        <div id="chart" class="chart-container"></div>
`)
	if withTable, _ := spec.Options["dataTable"].(bool); withTable {
		writeDataTable(&sb, spec)
	}
	sb.WriteString(`    </div>
    <script>
        (function() {
            var chartDom = document.getElementById('chart');
            var myChart = echarts.init(chartDom);
            var option = ` + string(optionJSON) + `;
            myChart.setOption(option);
            window.addEventListener('resize', function() {
                myChart.resize();
            });
        })();
    </script>
</body>
</html>`)
	return sb.String(), nil
}

func (r *HTMLRenderer) renderTable(spec *Spec) string {
	var sb strings.Builder
	writeHead(&sb, spec.Title, false)
	sb.WriteString(`    <div class="container">
        <h1>` + html.EscapeString(spec.Title) + `</h1>
`)
	writeDataTable(&sb, spec)
	sb.WriteString(`    </div>
</body>
</html>`)
	return sb.String()
}

func writeDataTable(sb *strings.Builder, spec *Spec) {
	columns := tableColumns(spec)
	sb.WriteString(`        <table>
            <thead><tr>`)
	for _, col := range columns {
		sb.WriteString("<th>" + html.EscapeString(col) + "</th>")
	}
	sb.WriteString("</tr></thead>\n            <tbody>\n")
	for _, row := range spec.Data {
		sb.WriteString("            <tr>")
		for _, col := range columns {
			sb.WriteString("<td>" + html.EscapeString(cellText(row[col])) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("            </tbody>\n        </table>\n")
}

// tableColumns reads the column order from the spec options, falling back
// to sorted row keys.
func tableColumns(spec *Spec) []string {
	switch raw := spec.Options["columns"].(type) {
	case []string:
		return raw
	case []interface{}:
		columns := make([]string, 0, len(raw))
		for _, v := range raw {
			columns = append(columns, fmt.Sprint(v))
		}
		return columns
	}
	var columns []string
	if len(spec.Data) > 0 {
		for k := range spec.Data[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	return columns
}

func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

func writeHead(sb *strings.Builder, title string, withECharts bool) {
	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + html.EscapeString(title) + `</title>
`)
	if withECharts {
		sb.WriteString(`    <script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>
`)
	}
	sb.WriteString(`    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif;
            background: #fafafa;
            color: #1a1a1a;
            padding: 40px 20px;
            line-height: 1.6;
        }
        .container { max-width: 1000px; margin: 0 auto; }
        h1 { font-size: 24px; margin-bottom: 20px; font-weight: 600; }
        .chart-container {
            width: 100%;
            height: 500px;
            background: #ffffff;
            border: 1px solid #e0e0e0;
            border-radius: 8px;
            padding: 20px;
        }
        table { border-collapse: collapse; width: 100%; background: #ffffff; }
        th, td { border: 1px solid #e0e0e0; padding: 8px 12px; text-align: left; font-size: 13px; }
        th { background: #f0f0f0; font-weight: 600; }
    </style>
</head>
<body>
`)
}

// seriesTypes maps each pattern to the ECharts series type used to draw
// it. Patterns without a dedicated ECharts type borrow the closest one.
var seriesTypes = map[string]string{
	"bar": "bar", "grouped_bar": "bar", "horizontal_bar": "bar",
	"lollipop": "bar", "dot_plot": "scatter", "bullet": "bar",
	"radar": "radar", "small_multiples": "bar",

	"histogram": "bar", "density": "line", "box_plot": "boxplot",
	"violin": "boxplot", "ridgeline": "line", "strip_plot": "scatter",
	"beeswarm": "scatter",

	"pie": "pie", "donut": "pie", "stacked_bar": "bar",
	"treemap": "treemap", "sunburst": "sunburst", "waffle": "bar",
	"marimekko": "bar",

	"line": "line", "area": "line", "stacked_area": "line",
	"stream": "line", "slope": "line", "sparkline": "line",
	"calendar_heatmap": "heatmap", "range_area": "line",

	"scatter": "scatter", "bubble": "scatter", "connected_scatter": "line",
	"hexbin": "heatmap", "correlation_heatmap": "heatmap",
	"parallel_coordinates": "parallel",

	"sankey": "sankey", "chord": "graph", "waterfall": "bar",
	"funnel": "funnel",

	"choropleth": "map", "symbol_map": "scatter",
}

func echartsOption(spec *Spec) (map[string]interface{}, error) {
	seriesType, ok := seriesTypes[spec.Pattern]
	if !ok {
		return nil, fmt.Errorf("no renderer for pattern %q", spec.Pattern)
	}

	option := map[string]interface{}{
		"title":   map[string]interface{}{"text": spec.Title},
		"tooltip": map[string]interface{}{},
	}
	if colors, ok := spec.Options["colors"].([]string); ok {
		option["color"] = colors
	}

	switch seriesType {
	case "pie":
		series := map[string]interface{}{
			"type": "pie",
			"data": nameValuePairs(spec),
		}
		if spec.Pattern == "donut" {
			series["radius"] = []string{"45%", "75%"}
		}
		option["series"] = []interface{}{series}
	case "sankey", "graph":
		nodes, links := flowGraph(spec)
		option["series"] = []interface{}{map[string]interface{}{
			"type":  seriesType,
			"data":  nodes,
			"links": links,
		}}
	case "funnel":
		option["series"] = []interface{}{map[string]interface{}{
			"type": "funnel",
			"data": nameValuePairs(spec),
		}}
	default:
		labels, values := axisSeries(spec)
		xAxis := map[string]interface{}{"type": "category", "data": labels}
		yAxis := map[string]interface{}{"type": "value"}
		if spec.Pattern == "horizontal_bar" {
			xAxis, yAxis = yAxis, xAxis
		}
		series := map[string]interface{}{"type": seriesType, "data": values}
		if stacked, _ := spec.Options["stack"].(bool); stacked {
			series["stack"] = "total"
		}
		switch spec.Pattern {
		case "area", "stacked_area", "stream", "range_area":
			series["areaStyle"] = map[string]interface{}{}
		}
		option["xAxis"] = xAxis
		option["yAxis"] = yAxis
		option["series"] = []interface{}{series}
	}
	return option, nil
}

// axisSeries extracts category labels and values from the x/y encoding.
func axisSeries(spec *Spec) ([]string, []interface{}) {
	xField := spec.Encoding["x"].Field
	yField := spec.Encoding["y"].Field
	labels := make([]string, 0, len(spec.Data))
	values := make([]interface{}, 0, len(spec.Data))
	for _, row := range spec.Data {
		labels = append(labels, cellText(row[xField]))
		values = append(values, row[yField])
	}
	return labels, values
}

func nameValuePairs(spec *Spec) []map[string]interface{} {
	nameField := spec.Encoding["color"].Field
	if nameField == "" {
		nameField = spec.Encoding["x"].Field
	}
	valueField := spec.Encoding["theta"].Field
	if valueField == "" {
		valueField = spec.Encoding["y"].Field
	}
	pairs := make([]map[string]interface{}, 0, len(spec.Data))
	for _, row := range spec.Data {
		pairs = append(pairs, map[string]interface{}{
			"name":  cellText(row[nameField]),
			"value": row[valueField],
		})
	}
	return pairs
}

// flowGraph builds node and link lists for sankey and chord layouts.
func flowGraph(spec *Spec) ([]map[string]interface{}, []map[string]interface{}) {
	srcField := spec.Encoding["source"].Field
	dstField := spec.Encoding["target"].Field
	sizeField := spec.Encoding["size"].Field

	seen := make(map[string]bool)
	var nodes []map[string]interface{}
	addNode := func(name string) {
		if !seen[name] {
			seen[name] = true
			nodes = append(nodes, map[string]interface{}{"name": name})
		}
	}
	links := make([]map[string]interface{}, 0, len(spec.Data))
	for _, row := range spec.Data {
		src := cellText(row[srcField])
		dst := cellText(row[dstField])
		addNode(src)
		addNode(dst)
		links = append(links, map[string]interface{}{
			"source": src,
			"target": dst,
			"value":  row[sizeField],
		})
	}
	return nodes, links
}
