// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, goose migrations applied from an fs.FS, a readiness probe and
// a no-rows helper.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//	    return err
//	}
package pg
