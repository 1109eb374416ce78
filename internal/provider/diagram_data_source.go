package provider

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
)

// Ensure provider defined types fully satisfy framework interfaces.
var (
	_ datasource.DataSource              = &DiagramDataSource{}
	_ datasource.DataSourceWithConfigure = &DiagramDataSource{}
)

// DiagramDataSource defines the data source implementation.
type DiagramDataSource struct {
	data *providerData
}

func NewDiagramDataSource() datasource.DataSource {
	return &DiagramDataSource{}
}

// DiagramDataSourceModel describes the data source data model.
type DiagramDataSourceModel struct {
	ID                types.String `tfsdk:"id"`
	ModelPath         types.String `tfsdk:"model_path"`
	ModelJSON         types.String `tfsdk:"model_json"`
	ArchitectureUID   types.String `tfsdk:"architecture_uid"`
	Renderer          types.String `tfsdk:"renderer"`
	Format            types.String `tfsdk:"format"`
	ViewType          types.String `tfsdk:"view_type"`
	Title             types.String `tfsdk:"title"`
	Direction         types.String `tfsdk:"direction"`
	Content           types.String `tfsdk:"content"`
	ElementCount      types.Int64  `tfsdk:"element_count"`
	RelationshipCount types.Int64  `tfsdk:"relationship_count"`
	Warnings          types.List   `tfsdk:"warnings"`
}

func (d *DiagramDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

// modelSourceAttributes are the three mutually exclusive model inputs.
func modelSourceAttributes() map[string]schema.Attribute {
	return map[string]schema.Attribute{
		"model_path": schema.StringAttribute{
			MarkdownDescription: "Path to an architecture model file (`.json`, `.yaml`, `.yml` or `.hcl`).",
			Optional:            true,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
				stringvalidator.ConflictsWith(path.MatchRoot("model_json"), path.MatchRoot("architecture_uid")),
			},
		},
		"model_json": schema.StringAttribute{
			MarkdownDescription: "Architecture model as a JSON document, e.g. from `jsonencode()`.",
			Optional:            true,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(2),
				stringvalidator.ConflictsWith(path.MatchRoot("model_path"), path.MatchRoot("architecture_uid")),
			},
		},
		"architecture_uid": schema.StringAttribute{
			MarkdownDescription: "Uid of an architecture stored in the backend configured by `api_base_url`.",
			Optional:            true,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
				stringvalidator.ConflictsWith(path.MatchRoot("model_path"), path.MatchRoot("model_json")),
			},
		},
	}
}

func (d *DiagramDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	attrs := modelSourceAttributes()
	attrs["id"] = schema.StringAttribute{
		Computed:            true,
		MarkdownDescription: "Hash of the rendered content",
	}
	attrs["renderer"] = schema.StringAttribute{
		MarkdownDescription: "Renderer name: 'graph', 'plantuml', 'structurizr' or 'likec4'. Default is 'graph'.",
		Optional:            true,
		Computed:            true,
		Validators: []validator.String{
			stringvalidator.OneOf(rendererNames()...),
		},
	}
	attrs["format"] = schema.StringAttribute{
		MarkdownDescription: "Renderer specific output format, e.g. 'json', 'svg', 'c4', 'deployment', 'dsl'. Defaults to the renderer's first format.",
		Optional:            true,
		Computed:            true,
	}
	attrs["view_type"] = schema.StringAttribute{
		MarkdownDescription: "PlantUML C4 view: 'context', 'container' or 'component'.",
		Optional:            true,
		Validators: []validator.String{
			stringvalidator.OneOf("context", "container", "component"),
		},
	}
	attrs["title"] = schema.StringAttribute{
		MarkdownDescription: "Title for the diagram. Defaults to the architecture name.",
		Optional:            true,
	}
	attrs["direction"] = schema.StringAttribute{
		MarkdownDescription: "Diagram direction: 'TB' (top to bottom), 'LR' (left to right), 'BT' (bottom to top), or 'RL' (right to left). Default is 'TB'.",
		Optional:            true,
		Computed:            true,
		Validators: []validator.String{
			stringvalidator.OneOf("TB", "LR", "BT", "RL"),
		},
	}
	attrs["content"] = schema.StringAttribute{
		MarkdownDescription: "Rendered diagram. Binary formats are base64 encoded.",
		Computed:            true,
	}
	attrs["element_count"] = schema.Int64Attribute{
		MarkdownDescription: "Number of elements in the architecture.",
		Computed:            true,
	}
	attrs["relationship_count"] = schema.Int64Attribute{
		MarkdownDescription: "Number of relationships in the architecture.",
		Computed:            true,
	}
	attrs["warnings"] = schema.ListAttribute{
		MarkdownDescription: "Validation warnings reported by the renderer.",
		ElementType:         types.StringType,
		Computed:            true,
	}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders an architecture model with one of the registered renderers and exposes the diagram source.",
		Attributes:          attrs,
	}
}

func (d *DiagramDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	pd, ok := req.ProviderData.(*providerData)
	if !ok {
		resp.Diagnostics.AddError("Unexpected provider data", fmt.Sprintf("expected *providerData, got %T", req.ProviderData))
		return
	}
	d.data = pd
}

func (d *DiagramDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data DiagramDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	pd, err := dataFrom(ctx, d.data)
	if err != nil {
		resp.Diagnostics.AddError("Failed to configure provider", err.Error())
		return
	}

	// Set defaults
	if data.Renderer.ValueString() == "" {
		data.Renderer = types.StringValue(renderer.GraphRendererName)
	}
	if data.Direction.ValueString() == "" {
		data.Direction = types.StringValue("TB")
	}

	result, err := newGenerator(ctx, pd).Generate(ctx, DiagramConfig{
		ModelPath:       data.ModelPath.ValueString(),
		ModelJSON:       data.ModelJSON.ValueString(),
		ArchitectureUID: data.ArchitectureUID.ValueString(),
		Renderer:        data.Renderer.ValueString(),
		Format:          data.Format.ValueString(),
		ViewType:        data.ViewType.ValueString(),
		Direction:       data.Direction.ValueString(),
		Title:           data.Title.ValueString(),
		IncludeLabels:   true,
	})
	if err != nil {
		resp.Diagnostics.AddError("Failed to generate diagram", err.Error())
		return
	}

	for _, w := range result.Warnings {
		resp.Diagnostics.AddWarning("Architecture model warning", w)
	}

	data.Format = types.StringValue(result.Output.Format)
	data.Content = types.StringValue(result.Output.Content)
	data.ElementCount = types.Int64Value(result.ElementCount)
	data.RelationshipCount = types.Int64Value(result.RelationshipCount)

	warnings, diags := types.ListValueFrom(ctx, types.StringType, nonNil(result.Warnings))
	resp.Diagnostics.Append(diags...)
	data.Warnings = warnings

	data.ID = types.StringValue(contentID(result.Output.Content))

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// contentID hashes rendered content into a short stable id.
func contentID(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash[:8])
}

func rendererNames() []string {
	return []string{
		renderer.GraphRendererName,
		renderer.PlantUMLRendererName,
		renderer.StructurizrRendererName,
		renderer.LikeC4RendererName,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
