package processor

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/utils"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// ValidateSchema 按声明的 schema 校验已加载的表，不做任何类型推断
//  1. 列名与列顺序必须完全一致
//  2. float 列的非缺失值必须都能解析为数字
//  3. required 列不允许缺失
func ValidateSchema(df dataframe.DataFrame, dcfg *config.DataConfig) error {
	if df.Err != nil {
		return apperrors.NewShapeError("DataFrame无效", df.Err)
	}

	names := df.Names()
	expected := dcfg.ColumnNames()
	for i, want := range expected {
		if i >= len(names) {
			return apperrors.NewShapeError(fmt.Sprintf("缺少列 %q", want), nil).
				WithContext("position", i)
		}
		if names[i] != want {
			return apperrors.NewShapeError(fmt.Sprintf("第 %d 列应为 %q，实际为 %q", i+1, want, names[i]), nil).
				WithContext("position", i).
				WithContext("column", names[i])
		}
	}
	if len(names) > len(expected) {
		return apperrors.NewShapeError(fmt.Sprintf("存在未声明的列 %q", names[len(expected)]), nil).
			WithContext("position", len(expected))
	}

	for _, spec := range dcfg.Columns {
		col := df.Col(spec.Name)
		for i := 0; i < col.Len(); i++ {
			el := col.Elem(i)
			if el.IsNA() {
				if spec.Required {
					return apperrors.NewParsingError(fmt.Sprintf("必填列 %q 第 %d 行缺失", spec.Name, i+1), nil).
						WithContext("row", i+1).
						WithContext("column", spec.Name)
				}
				continue
			}
			if spec.Type != config.TypeFloat {
				continue
			}
			if _, err := utils.ParseFloat(el.String()); err != nil {
				return apperrors.NewParsingError(fmt.Sprintf("列 %q 第 %d 行不是数字: %q", spec.Name, i+1, el.String()), err).
					WithContext("row", i+1).
					WithContext("column", spec.Name)
			}
		}
	}

	return nil
}
