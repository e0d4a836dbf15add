package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
	"golang.org/x/sync/errgroup"
)

const (
	// UnknownExtensionType groups extensions the vendor returned without a type.
	UnknownExtensionType = "UNKNOWN"

	locationPageSize     = 100
	locationFetchWorkers = 4
	maxPages             = 50
)

// DirectoryAPI is the subset of voiceadmin.Client used by DirectoryService.
type DirectoryAPI interface {
	ListLocations(ctx context.Context, token, accountKey string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Location], error)
	ListLocationDevices(ctx context.Context, token, locationID string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Device], error)
	ListExtensions(ctx context.Context, token, accountKey string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Extension], error)
}

// LocationGroup is one location together with the devices assigned to it.
type LocationGroup struct {
	Location voiceadmin.Location
	Devices  []voiceadmin.Device
}

// DirectoryService builds the grouped views shown on the dashboard.
type DirectoryService struct {
	API DirectoryAPI
}

// DevicesByLocation lists every location of the account and the devices at
// each one. Locations without devices are omitted; the rest keep the order
// the vendor returned them in.
func (d *DirectoryService) DevicesByLocation(ctx context.Context, token, accountKey string) ([]LocationGroup, error) {
	locations, err := collectPages(ctx, locationPageSize, func(ctx context.Context, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Location], error) {
		return d.API.ListLocations(ctx, token, accountKey, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	devices := make([][]voiceadmin.Device, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(locationFetchWorkers)
	for i, loc := range locations {
		g.Go(func() error {
			items, err := collectPages(gctx, locationPageSize, func(ctx context.Context, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Device], error) {
				return d.API.ListLocationDevices(ctx, token, loc.ID, opts)
			})
			if err != nil {
				return fmt.Errorf("list devices for location %s: %w", loc.ID, err)
			}
			devices[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make([]LocationGroup, 0, len(locations))
	for i, loc := range locations {
		if len(devices[i]) == 0 {
			continue
		}
		groups = append(groups, LocationGroup{Location: loc, Devices: devices[i]})
	}
	return groups, nil
}

// ExtensionsByType groups the account's extensions by type and returns the
// type names in sorted order.
func (d *DirectoryService) ExtensionsByType(ctx context.Context, token, accountKey string) (map[string][]voiceadmin.Extension, []string, error) {
	extensions, err := collectPages(ctx, 0, func(ctx context.Context, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Extension], error) {
		return d.API.ListExtensions(ctx, token, accountKey, opts)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list extensions: %w", err)
	}

	byType := make(map[string][]voiceadmin.Extension)
	for _, ext := range extensions {
		typ := cmp.Or(ext.Type, UnknownExtensionType)
		byType[typ] = append(byType[typ], ext)
	}

	types := make([]string, 0, len(byType))
	for typ := range byType {
		types = append(types, typ)
	}
	slices.Sort(types)

	return byType, types, nil
}

// collectPages follows nextPageMarker until the last page.
func collectPages[T any](
	ctx context.Context,
	pageSize int,
	fetch func(context.Context, voiceadmin.PageOptions) (*voiceadmin.Page[T], error),
) ([]T, error) {
	var (
		out  []T
		opts = voiceadmin.PageOptions{PageSize: pageSize}
	)

	for range maxPages {
		page, err := fetch(ctx, opts)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return out, nil
		}
		out = append(out, page.Items...)

		if page.NextPageMarker == "" || page.NextPageMarker == opts.PageMarker {
			return out, nil
		}
		opts.PageMarker = page.NextPageMarker
	}
	return out, nil
}
