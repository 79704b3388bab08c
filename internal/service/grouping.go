package service

import (
	"sort"

	"github.com/eteeap/document-module/internal/domain/model"
)

// GroupByLabel группирует документы владельца по меткам для листинга.
// Документ без метки попадает в группу model.DefaultLabel.
// Внутри каждой группы порядок детерминирован: по возрастанию времени
// загрузки, при равенстве — по идентификатору файла.
func GroupByLabel(files []*model.StoredFile) map[string][]model.FileSummary {
	groups := make(map[string][]model.FileSummary)

	for _, f := range files {
		label := f.EffectiveLabel()
		groups[label] = append(groups[label], f.Summary())
	}

	for label := range groups {
		g := groups[label]
		sort.SliceStable(g, func(i, j int) bool {
			if !g[i].UploadedAt.Equal(g[j].UploadedAt) {
				return g[i].UploadedAt.Before(g[j].UploadedAt)
			}
			return g[i].ID < g[j].ID
		})
	}

	return groups
}
