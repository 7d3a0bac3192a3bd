package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProjectUpdate 创建者发布的项目动态
type ProjectUpdate struct {
	Base

	ProjectID  string           `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Title      string           `json:"title" gorm:"not null"`
	Content    string           `json:"content" gorm:"type:text;not null"`
	Visibility UpdateVisibility `json:"visibility" gorm:"type:varchar(16);not null;default:'public'"`
	Images     StringList       `json:"images" gorm:"type:text"`
	ViewCount  int64            `json:"view_count" gorm:"not null;default:0"`
}

// UpdateVisibility 动态可见范围
type UpdateVisibility string

const (
	VisibilityPublic      UpdateVisibility = "public"
	VisibilityBackersOnly UpdateVisibility = "backers_only"
)

func (v UpdateVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityBackersOnly
}

// StringList 以 JSON 文本存储的字符串数组
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
	return json.Unmarshal(raw, (*[]string)(s))
}
