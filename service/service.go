package service

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sync"

	contentserverclient "github.com/foomo/contentserver/client"
	"github.com/foomo/contentserver/content"
	"github.com/foomo/contentserver/requests"
	"go.uber.org/zap"

	"github.com/foomo/pagemethods-mcp/pages"
)

// Service resolves pages from the content server and exposes the site-wide
// id lookup the related-pages selector needs.
type Service interface {
	Resolve(ctx context.Context, uri string) (pages.Page, error)
	Site() pages.Site
}

type SiteSettings struct {
	Env              *requests.Env
	BaseURL          string
	ContentServerURL string
	MimeTypes        []string
}

type service struct {
	contentServerClient *contentserverclient.Client
	siteSettings        SiteSettings
	logger              *zap.Logger

	mu    sync.RWMutex
	index map[string]*contentPage
}

func NewService(siteSettings SiteSettings, httpClient *http.Client, logger *zap.Logger) Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	contentServerClient := contentserverclient.New(
		contentserverclient.NewHTTPTransport(
			siteSettings.ContentServerURL,
			contentserverclient.HTTPTransportWithHTTPClient(httpClient),
		))

	return &service{
		contentServerClient: contentServerClient,
		siteSettings:        siteSettings,
		logger:              logger,
		index:               make(map[string]*contentPage),
	}
}

// isValidURI checks if a URI is valid for processing
func isValidURI(uri string) bool {
	return uri != "" && path.IsAbs(uri)
}

// Resolve fetches the page at the given URI together with its sibling
// pool and indexes everything for id lookups.
func (s *service) Resolve(ctx context.Context, uri string) (pages.Page, error) {
	siteContent, err := s.contentServerClient.GetContent(ctx, &requests.Content{
		URI:   uri,
		Env:   s.siteSettings.Env,
		Nodes: map[string]*requests.Node{},
	})
	if err != nil {
		return nil, err
	}
	if siteContent.Item == nil {
		return nil, fmt.Errorf("no content item for %q", uri)
	}

	page := s.pageFromItem(siteContent.Item)

	siblingIDs := []string{}
	if len(siteContent.Path) > 0 {
		parent := siteContent.Path[0]
		nodes, err := s.contentServerClient.GetNodes(ctx, s.siteSettings.Env, map[string]*requests.Node{
			parent.ID: {
				ID:        parent.ID,
				MimeTypes: s.siteSettings.MimeTypes,
			},
		})
		if err != nil {
			return nil, err
		}
		parentNode, ok := nodes[parent.ID]
		if !ok {
			return nil, fmt.Errorf("parent node %q not found", parent.ID)
		}
		for _, id := range parentNode.Index {
			siblingNode, ok := parentNode.Nodes[id]
			if !ok || siblingNode.Item == nil {
				continue
			}
			if !isValidURI(siblingNode.Item.URI) {
				continue
			}
			sibling := s.pageFromItem(siblingNode.Item)
			siblingIDs = append(siblingIDs, sibling.id)
		}
	}

	s.mu.Lock()
	for _, id := range siblingIDs {
		if sibling, ok := s.index[id]; ok {
			sibling.siblings = siblingIDs
		}
	}
	page.siblings = siblingIDs
	s.mu.Unlock()

	s.logger.Debug("resolved page",
		zap.String("uri", uri),
		zap.String("id", page.id),
		zap.Int("siblings", len(siblingIDs)),
	)
	return page, nil
}

// pageFromItem builds (and indexes) a page from a content item.
func (s *service) pageFromItem(item *content.Item) *contentPage {
	page := &contentPage{
		svc:    s,
		id:     item.ID,
		uri:    item.URI,
		name:   item.Name,
		listed: true,
		fields: map[string]string{},
	}
	for key, value := range item.Data {
		switch v := value.(type) {
		case string:
			page.fields[key] = v
		case bool:
			if key == "unlisted" && v {
				page.listed = false
			}
		}
	}

	s.mu.Lock()
	s.index[page.id] = page
	s.mu.Unlock()
	return page
}

func (s *service) Site() pages.Site {
	return siteIndex{svc: s}
}

type siteIndex struct {
	svc *service
}

func (s siteIndex) Find(id string) pages.Page {
	s.svc.mu.RLock()
	defer s.svc.mu.RUnlock()
	if page, ok := s.svc.index[id]; ok {
		return page
	}
	return nil
}
