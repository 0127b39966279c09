package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rkm/sat-gbdx/internal/overlap"
	"github.com/rkm/sat-gbdx/internal/scene"
	"github.com/rkm/sat-gbdx/internal/tiles"
	"github.com/rkm/sat-gbdx/internal/translate"
)

// sceneOps are the post-search operations shared by search and load.
type sceneOps struct {
	order    bool
	download []string
	tileZoom int
	save     string
	appendTo bool
}

func addOpsFlags(cmd *cobra.Command, ops *sceneOps) {
	cmd.Flags().BoolVar(&ops.order, "order", false, "Place fulfillment orders for the scenes")
	cmd.Flags().StringSliceVar(&ops.download, "download", nil,
		"Download these asset keys (thumbnail, default, rgb, visual, analytic)")
	cmd.Flags().IntVar(&ops.tileZoom, "tiles", 0, "Fetch map tiles at this zoom level")
	cmd.Flags().StringVar(&ops.save, "save", "", "Save scene metadata to this GeoJSON file")
	cmd.Flags().BoolVar(&ops.appendTo, "append", false, "Merge into an existing scenes file instead of replacing it")
}

func newSearchCmd() *cobra.Command {
	var (
		intersects  string
		datetime    string
		clouds      string
		collections []string
		ids         []string
		minOverlap  float64
		ops         sceneOps
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the GBDX catalog",
		Example: `  # Scenes over an AOI in 2017 with at most 10% cloud cover
  sat-gbdx search --intersects aoi.geojson --datetime 2017-01-01/2018-01-01 --clouds 10

  # Keep only scenes covering at least half the AOI, save results
  sat-gbdx search --intersects aoi.geojson --overlap 0.5 --save scenes.geojson

  # Order and download specific scenes by catalog ID
  sat-gbdx search --ids 103001006B1F5C00 --order --download rgb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if intersects == "" && len(ids) == 0 {
				return fmt.Errorf("either --intersects or --ids is required")
			}
			if err := overlap.ValidateThreshold(minOverlap); err != nil {
				return err
			}

			query := &translate.Query{
				Datetime:    datetime,
				Collections: collections,
				IDs:         ids,
			}

			if intersects != "" {
				raw, err := readAOI(intersects)
				if err != nil {
					return err
				}
				query.Intersects = raw
			}

			if clouds != "" {
				cc, err := translate.ParseCloudCover(clouds)
				if err != nil {
					return err
				}
				query.CloudCover = cc
			}

			col, err := a.search(cmd.Context(), query, minOverlap)
			if err != nil {
				return err
			}

			if err := a.runOps(cmd.Context(), col, ops); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d scenes found\n", col.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&intersects, "intersects", "", "AOI as a GeoJSON file path or inline GeoJSON")
	cmd.Flags().StringVar(&datetime, "datetime", "", "Acquisition instant or start/end interval (RFC3339 or date)")
	cmd.Flags().StringVar(&clouds, "clouds", "", "Maximum cloud cover percent, or min/max range")
	cmd.Flags().StringSliceVar(&collections, "collections", nil, "Restrict to these collection IDs (e.g. wv02,ge01)")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Fetch these catalog IDs directly, ignoring other filters")
	cmd.Flags().Float64Var(&minOverlap, "overlap", 0, "Minimum AOI overlap fraction [0,1] a scene must cover")
	addOpsFlags(cmd, &ops)

	return cmd
}

// search runs the query against the catalog and returns a scene collection,
// filtered by AOI overlap when an AOI was given.
func (a *app) search(ctx context.Context, query *translate.Query, minOverlap float64) (*scene.Collection, error) {
	tr, err := a.translator.Translate(query)
	if err != nil {
		return nil, err
	}

	var scenes []*scene.Scene
	if len(tr.IDs) > 0 {
		for _, id := range tr.IDs {
			rec, err := a.client.GetRecord(ctx, id)
			if err != nil {
				return nil, err
			}
			s, err := a.normalizer.Normalize(rec)
			if err != nil {
				return nil, err
			}
			scenes = append(scenes, s)
		}
	} else {
		records, err := a.client.Search(ctx, tr.Params)
		if err != nil {
			return nil, err
		}
		scenes, err = a.normalizer.NormalizeAll(records)
		if err != nil {
			return nil, err
		}
	}

	col := scene.NewCollection(scenes, nil)
	if len(query.Intersects) == 0 {
		return col, nil
	}

	if err := col.SetAOI(query.Intersects); err != nil {
		return nil, err
	}
	aoi, err := col.AOI()
	if err != nil {
		return nil, err
	}

	if err := overlap.Evaluate(col.Scenes, aoi); err != nil {
		return nil, err
	}
	col.Scenes = overlap.FilterByThreshold(col.Scenes, minOverlap)

	return col, nil
}

// runOps applies the ordering, download, tile and save operations to a
// collection, in that order.
func (a *app) runOps(ctx context.Context, col *scene.Collection, ops sceneOps) error {
	if ops.order {
		if err := a.cfg.RequireToken(); err != nil {
			return err
		}
		fulfilled, err := a.fetcher.OrderAll(ctx, col)
		if err != nil {
			a.logger.Warn("some orders failed", "error", err.Error())
		}
		fmt.Printf("%d of %d scenes fulfilled\n", fulfilled, col.Len())
	}

	for _, key := range ops.download {
		if key != "thumbnail" {
			if err := a.cfg.RequireToken(); err != nil {
				return err
			}
		}
		report, err := a.fetcher.FetchBatch(ctx, col, key)
		if err != nil {
			return err
		}
		if err := report.Err(); err != nil {
			a.logger.Warn("fetch batch had failures", "asset", key, "error", err.Error())
		}
	}

	if ops.tileZoom > 0 {
		if err := a.fetchTiles(ctx, col, ops.tileZoom); err != nil {
			return err
		}
	}

	if ops.save != "" {
		if err := col.Save(ops.save, ops.appendTo); err != nil {
			return err
		}
		a.logger.Info("saved scenes", "path", ops.save, "count", col.Len())
	}

	return nil
}

func (a *app) fetchTiles(ctx context.Context, col *scene.Collection, zoom int) error {
	if err := a.cfg.RequireToken(); err != nil {
		return err
	}
	aoi, err := col.AOI()
	if err != nil {
		return err
	}

	svc := tiles.NewService(tiles.DefaultBaseURL, a.cfg.GBDX.Token, a.client, a.logger)
	for _, s := range col.Scenes {
		outDir := filepath.Join(a.cfg.Data.Dir, s.Filename(a.cfg.Data.Filename))
		if _, err := svc.Fetch(ctx, s, aoi, zoom, outDir); err != nil {
			a.logger.Error("tile fetch failed", "scene", s.ID(), "error", err.Error())
		}
	}
	return nil
}

// readAOI loads GeoJSON from a file path, or accepts inline GeoJSON.
func readAOI(arg string) (json.RawMessage, error) {
	if _, err := os.Stat(arg); err == nil {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read AOI file: %w", err)
		}
		return json.RawMessage(data), nil
	}
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg), nil
	}
	return nil, fmt.Errorf("AOI %q is neither a readable file nor valid GeoJSON", arg)
}
