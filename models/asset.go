package models

import "time"

// Asset is a defined asset type. Only the issuer identity may issue
// new units of the asset.
type Asset struct {
	Code   string `gorm:"primary_key" json:"code"`
	Issuer string `json:"issuer"`
	Memo   string `json:"memo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
