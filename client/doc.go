// Package client provides the unified entry point of the image gateway.
//
// The Client builds every provider adapter from API keys and provides:
//
//   - Priority ordered providers: huggingface, openai, stability, google, deepai, firefly, midjourney
//   - Fan-out with first-success fallback, or targeting a single provider
//   - Job polling for asynchronous providers within a bounded budget
//   - Event emission: Observable generations via channel
//
// # Basic Usage
//
// Create a client with the API keys you have:
//
//	c, err := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        HuggingFace: os.Getenv("HUGGINGFACE_API_KEY"),
//	        OpenAI:      os.Getenv("OPENAI_API_KEY"),
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := c.Generate(ctx, "A sunset over mountains", imagegate.ProviderAll)
//
// # Targeting a Provider
//
//	res, err := c.Generate(ctx, "A sunset over mountains", imagegate.ProviderOpenAI,
//	    imagegate.WithImageQuality(imagegate.ImageQualityHD),
//	)
//
// Targeting an unknown or unconfigured provider fails without any network call.
//
// # Editing
//
// OpenAI is the only provider that accepts a source image:
//
//	res, err := c.Generate(ctx, "Add a party hat", "",
//	    imagegate.WithSourceImage(&imagegate.SourceImage{Data: png, MIMEType: "image/png"}),
//	)
//
// # Provider Status
//
// Check which providers are usable before sending traffic:
//
//	for _, s := range c.Providers() {
//	    fmt.Println(s.Name, s.Configured, s.SupportsEdit)
//	}
//
// # Events
//
// Pass channels to observe orchestration and polling:
//
//	events := make(chan gateway.Event, 100)
//	c, _ := client.New(client.Config{APIKeys: keys, Events: events})
//
//	go func() {
//	    for e := range events {
//	        log.Printf("%s %s attempt=%d", e.Type, e.Provider, e.Attempt)
//	    }
//	}()
package client
