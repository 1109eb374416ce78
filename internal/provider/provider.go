package provider

import (
	"context"
	"os"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/terraform-provider-archstudio/internal/logger"
	"github.com/ankek/terraform-provider-archstudio/internal/parser"
	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
)

// Ensure ArchStudioProvider satisfies various provider interfaces.
var _ provider.Provider = &ArchStudioProvider{}

// ArchStudioProvider defines the provider implementation.
type ArchStudioProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// ArchStudioProviderModel describes the provider data model.
type ArchStudioProviderModel struct {
	PlantUMLServerURL types.String `tfsdk:"plantuml_server_url"`
	PlantUMLTimeout   types.Int64  `tfsdk:"plantuml_timeout"`
	APIBaseURL        types.String `tfsdk:"api_base_url"`
	APIToken          types.String `tfsdk:"api_token"`
}

// providerData is shared by every data source and resource. The PlantUML
// client and its cache live for the whole provider process.
type providerData struct {
	images *plantuml.Client
	remote parser.RemoteConfig
}

func (p *ArchStudioProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "archstudio"
	resp.Version = p.version
}

func (p *ArchStudioProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "The ArchStudio provider renders enterprise architecture models as graph data, PlantUML, Structurizr DSL and LikeC4 DSL diagrams.",
		Attributes: map[string]schema.Attribute{
			"plantuml_server_url": schema.StringAttribute{
				Description: "PlantUML server used to turn PlantUML sources into images. Defaults to " + plantuml.DefaultServerURL + ".",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"plantuml_timeout": schema.Int64Attribute{
				Description: "Timeout in seconds for PlantUML server requests. Default is 30.",
				Optional:    true,
				Validators: []validator.Int64{
					int64validator.Between(1, 600),
				},
			},
			"api_base_url": schema.StringAttribute{
				Description: "Base URL of the architecture backend, required for architecture_uid lookups.",
				Optional:    true,
			},
			"api_token": schema.StringAttribute{
				Description: "Bearer token for the architecture backend. Can also be set via the " + parser.TokenEnvVar + " environment variable.",
				Optional:    true,
				Sensitive:   true,
			},
		},
	}
}

func (p *ArchStudioProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data ArchStudioProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	pd, err := newProviderData(ctx, data)
	if err != nil {
		resp.Diagnostics.AddError("Failed to configure provider", err.Error())
		return
	}

	tflog.Debug(ctx, "configured archstudio provider", map[string]any{
		"plantuml_server_url": data.PlantUMLServerURL.ValueString(),
		"api_base_url":        pd.remote.BaseURL,
	})

	resp.DataSourceData = pd
	resp.ResourceData = pd
}

func newProviderData(ctx context.Context, data ArchStudioProviderModel) (*providerData, error) {
	cfg := plantuml.Config{
		ServerURL: data.PlantUMLServerURL.ValueString(),
		Logger:    logger.ForTerraform(ctx),
	}
	if !data.PlantUMLTimeout.IsNull() && !data.PlantUMLTimeout.IsUnknown() {
		cfg.Timeout = time.Duration(data.PlantUMLTimeout.ValueInt64()) * time.Second
	}
	client, err := plantuml.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	token := data.APIToken.ValueString()
	if token == "" {
		token = os.Getenv(parser.TokenEnvVar)
	}

	return &providerData{
		images: client,
		remote: parser.RemoteConfig{
			BaseURL: data.APIBaseURL.ValueString(),
			Token:   token,
		},
	}, nil
}

// dataFrom returns the configured provider data, falling back to defaults
// when the framework has not called Configure yet.
func dataFrom(ctx context.Context, raw any) (*providerData, error) {
	if pd, ok := raw.(*providerData); ok && pd != nil {
		return pd, nil
	}
	return newProviderData(ctx, ArchStudioProviderModel{
		PlantUMLServerURL: types.StringNull(),
		PlantUMLTimeout:   types.Int64Null(),
		APIBaseURL:        types.StringNull(),
		APIToken:          types.StringNull(),
	})
}

func (p *ArchStudioProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewDiagramResource,
	}
}

func (p *ArchStudioProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewDiagramDataSource,
		NewArchitectureDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &ArchStudioProvider{
			version: version,
		}
	}
}
