package service

import (
	"context"
	"strings"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/qikink"
	"github.com/vinayak200306/Veluno/pkg/logger"
)

// RemoteCatalog 代发货商目录接口，*qikink.Client 为生产实现
type RemoteCatalog interface {
	ListProducts(ctx context.Context) ([]qikink.RemoteProduct, error)
}

// ProductUpserter 同步写入接口，*dao.ProductDao 为生产实现
type ProductUpserter interface {
	UpsertByQikinkID(ctx context.Context, p *model.Product) error
}

type SyncService struct {
	catalog RemoteCatalog
	store   ProductUpserter
	cache   CatalogInvalidator // optional
}

func NewSyncService(catalog RemoteCatalog, store ProductUpserter, cache CatalogInvalidator) *SyncService {
	return &SyncService{catalog: catalog, store: store, cache: cache}
}

// SyncResult 一次同步的统计
type SyncResult struct {
	Fetched int `json:"fetched"`
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

// SyncCatalog 拉取远端目录并逐条幂等落库。
// 单条失败只记日志不中断，让其余商品继续同步
func (s *SyncService) SyncCatalog(ctx context.Context) (*SyncResult, error) {
	remote, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Fetched: len(remote)}
	for i := range remote {
		p, ok := mapRemoteProduct(&remote[i])
		if !ok {
			result.Skipped++
			continue
		}
		if err := s.store.UpsertByQikinkID(ctx, p); err != nil {
			logger.ErrorContext(ctx, "product sync failed",
				"qikink_product_id", remote[i].ID, "err", err)
			result.Skipped++
			continue
		}
		result.Synced++
	}

	if result.Synced > 0 && s.cache != nil {
		s.cache.Bump(ctx)
	}
	logger.InfoContext(ctx, "catalog sync finished",
		"fetched", result.Fetched, "synced", result.Synced, "skipped", result.Skipped)
	return result, nil
}

// mapRemoteProduct 把远端商品映射为本地商品。
// 类目从标签推断，无法推断时归入 Accessories
func mapRemoteProduct(r *qikink.RemoteProduct) (*model.Product, bool) {
	if r.ID == "" || r.Name == "" {
		return nil, false
	}
	price, err := r.Price.Float64()
	if err != nil || price <= 0 {
		return nil, false
	}

	sizes, colors := variantAxes(r.Variants)
	if len(sizes) == 0 {
		sizes = []string{"M"}
	}

	return &model.Product{
		QikinkProductID: r.ID,
		SKU:             "QK-" + strings.ToUpper(r.ID),
		Name:            r.Name,
		Description:     r.Description,
		Price:           price,
		Category:        categoryFromTags(r.Tags),
		Sizes:           strings.Join(sizes, ","),
		Colors:          strings.Join(colors, ","),
		Images:          strings.Join(r.Images, ","),
		Stock:           r.Stock,
		IsActive:        true,
		Tags:            strings.Join(r.Tags, ","),
	}, true
}

// variantAxes 抽取变体的尺码和颜色轴，保持首次出现顺序并去重
func variantAxes(variants []qikink.RemoteVariant) (sizes, colors []string) {
	seenSize := map[string]bool{}
	seenColor := map[string]bool{}
	for _, v := range variants {
		size := strings.ToUpper(strings.TrimSpace(v.Size))
		if size != "" && model.IsValidSize(size) && !seenSize[size] {
			seenSize[size] = true
			sizes = append(sizes, size)
		}
		color := strings.TrimSpace(v.Color)
		if color != "" && !seenColor[color] {
			seenColor[color] = true
			colors = append(colors, color)
		}
	}
	return sizes, colors
}

func categoryFromTags(tags []string) string {
	for _, tag := range tags {
		switch strings.ToLower(strings.TrimSpace(tag)) {
		case "men", "mens", "male":
			return model.CategoryMen
		case "women", "womens", "female":
			return model.CategoryWomen
		case "kids", "children":
			return model.CategoryKids
		case "footwear", "shoes":
			return model.CategoryFootwear
		case "activewear", "sports", "gym":
			return model.CategoryActivewear
		}
	}
	return model.CategoryAccessories
}
