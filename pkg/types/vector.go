package types

// Metric 向量索引的距离度量
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dot-product"
)

// Valid 判断度量是否受支持
func (m Metric) Valid() bool {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDotProduct:
		return true
	}
	return false
}

// Vector 向量索引中的一条记录, ID 在命名空间内唯一
type Vector struct {
	ID        string                 `json:"id"`
	Namespace string                 `json:"namespace"`
	Values    []float32              `json:"values,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Match 一次相似度检索的命中结果。Score 越大越相似。
type Match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Values   []float32              `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IndexDescription 向量索引的实时配置
type IndexDescription struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Dimensions   int    `json:"dimensions"`
	Metric       Metric `json:"metric"`
	VectorsCount int64  `json:"vectorsCount"`
}
