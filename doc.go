// Package imagegate defines the shared contract of an image generation gateway
// that delegates a text prompt to one of several interchangeable providers.
//
// The package holds the types every other package speaks:
//
//   - [Provider]: the capability contract implemented by every adapter
//   - [Result]: a generated image URL (remote or data URI) and its origin
//   - [ImageOptions]: pass-through request options built with functional options
//   - [Kind] and the typed errors: a stable failure taxonomy
//
// Use the [github.com/spetersoncode/imagegate/client] package as the entry
// point. It builds every provider adapter from API keys, registers them in
// priority order and returns a gateway:
//
//	c, err := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        OpenAI:      os.Getenv("OPENAI_API_KEY"),
//	        HuggingFace: os.Getenv("HUGGINGFACE_API_KEY"),
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := c.Generate(ctx, "a red fox in snow", imagegate.ProviderAll,
//	    imagegate.WithImageSize(imagegate.ImageSize1024x1024),
//	    imagegate.WithImageQuality(imagegate.ImageQualityHD),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Provider, res.URL)
//
// # Provider Selection
//
// An empty hint or [ProviderAll] tries every configured provider in priority
// order and returns the first success. A specific [ProviderName] targets that
// provider alone with no fallback.
//
// # Error Handling
//
// Every gateway failure carries a [Kind] obtained with [KindOf]:
//
//	switch imagegate.KindOf(err) {
//	case imagegate.KindInvalidPrompt:
//	    // reject the request
//	case imagegate.KindAllProvidersFailed:
//	    var all *imagegate.AllProvidersFailedError
//	    if errors.As(err, &all) {
//	        for _, a := range all.Attempts {
//	            log.Printf("%s: %v", a.Provider, a.Err)
//	        }
//	    }
//	}
//
// Transport causes inside a [ProviderError] are categorized [Error] values, so
// [IsTransient] and [IsPermanent] tell an overloaded upstream from an expired key.
package imagegate
