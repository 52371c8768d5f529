package es

// H is a loosely typed query or document body.
type H map[string]interface{}

// Source keeps the raw _source of a hit, decoding is left to the caller.
type Source string

func (d *Source) UnmarshalJSON(data []byte) error {
	*d = Source(data)
	return nil
}

func (d *Source) MarshalJSON() ([]byte, error) {
	return []byte(*d), nil
}

type ESSearchResult struct {
	Took    int          `json:"took"`
	TimeOut bool         `json:"timed_out"`
	Hits    ESSearchHits `json:"hits"`
}

type ESSearchHits struct {
	Total    ESSearchHitsTotal `json:"total"`
	MaxScore float64           `json:"max_score"`
	Hits     []ESSearchHit     `json:"hits"`
}

type ESSearchHitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

type ESSearchHit struct {
	Index  string        `json:"_index"`
	Id     string        `json:"_id"`
	Score  float64       `json:"_score"`
	Source Source        `json:"_source"`
	Sort   []interface{} `json:"sort"`
}

type documentResult struct {
	Id     string `json:"_id"`
	Found  bool   `json:"found"`
	Result string `json:"result"`
	Source Source `json:"_source"`
}
