// internal/workers/geo/lookup-postal-code/models.go
package lookuppostalcode

import "site-analytics/internal/models"

type Input struct {
	PostalCode string `json:"postal_code"`
}

type Output struct {
	Address models.PostalAddress `json:"address"`
	Cached  bool                 `json:"cached"`
}

type zipcloudResponse struct {
	Status  int              `json:"status"`
	Message *string          `json:"message"`
	Results []zipcloudResult `json:"results"`
}

type zipcloudResult struct {
	Zipcode  string `json:"zipcode"`
	PrefCode string `json:"prefcode"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Address3 string `json:"address3"`
	Kana1    string `json:"kana1"`
	Kana2    string `json:"kana2"`
	Kana3    string `json:"kana3"`
}
