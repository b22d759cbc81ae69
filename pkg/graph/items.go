package graph

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetItemByPath retrieves a single drive item by its path relative to the
// drive root.
func (c *Client) GetItemByPath(ctx context.Context, path string) (DriveItem, error) {
	var item DriveItem

	res, err := c.apiCall(ctx, "GET", buildPathURL(path), "", nil)
	if err != nil {
		return item, err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&item); err != nil {
		return item, fmt.Errorf("%w: item metadata for path '%s': %v", ErrDecodingFailed, path, err)
	}
	return item, nil
}

// GetItemByID retrieves a single drive item by its remote-assigned ID.
func (c *Client) GetItemByID(ctx context.Context, itemID string) (DriveItem, error) {
	var item DriveItem

	res, err := c.apiCall(ctx, "GET", buildItemURL(itemID), "", nil)
	if err != nil {
		return item, err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&item); err != nil {
		return item, fmt.Errorf("%w: item metadata for id '%s': %v", ErrDecodingFailed, itemID, err)
	}
	return item, nil
}

// ListChildren enumerates every child of a folder, following @odata.nextLink
// until the listing is exhausted.
func (c *Client) ListChildren(ctx context.Context, itemID string) ([]DriveItem, error) {
	var all []DriveItem
	currentURL := buildItemURL(itemID) + "/children"

	for currentURL != "" {
		res, err := c.apiCall(ctx, "GET", currentURL, "", nil)
		if err != nil {
			return nil, err
		}

		var page DriveItemList
		err = json.NewDecoder(res.Body).Decode(&page)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: children of item '%s': %v", ErrDecodingFailed, itemID, err)
		}

		all = append(all, page.Value...)
		currentURL = page.NextLink
	}

	return all, nil
}
