package dao

import (
	"context"

	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dbcore"
	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dbmodel"
)

type MetaDomain struct{}

func NewMetaDomain() *MetaDomain {
	return &MetaDomain{}
}

func (*MetaDomain) TenantDb(ctx context.Context) dbmodel.ITenantDb {
	return &tenantDb{dbcore.GetDB(ctx)}
}
