// Package model provides image model constants for all supported providers.
//
// Models know their provider and carry pricing information for cost estimation.
// Adapters use the Default* models when a request names no model.
//
// # Selecting a Model
//
//	res, err := c.Generate(ctx, "A sunset over mountains", imagegate.ProviderGoogle,
//	    imagegate.WithImageModel(model.Imagen4Ultra.String()),
//	)
//
// # Pricing Information
//
// Some providers price by quality, others per image:
//
//	cost := model.DallE3.Cost(imagegate.ImageQualityHD) // 0.08
//
//	if cost, ok := model.EstimateCost(res.Model, imagegate.ImageQualityStandard); ok {
//	    fmt.Printf("about $%.2f\n", cost)
//	}
//
// Models without published prices (Hugging Face, DeepAI, Midjourney) report
// ImagePricing.Known() == false.
package model
