package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
)

// Ensure provider defined types fully satisfy framework interfaces.
var (
	_ resource.Resource                = &DiagramResource{}
	_ resource.ResourceWithConfigure   = &DiagramResource{}
	_ resource.ResourceWithImportState = &DiagramResource{}
)

func NewDiagramResource() resource.Resource {
	return &DiagramResource{}
}

// DiagramResource writes a rendered diagram to output_path.
type DiagramResource struct {
	data *providerData
}

// DiagramResourceModel describes the resource data model.
type DiagramResourceModel struct {
	ID                types.String `tfsdk:"id"`
	ModelPath         types.String `tfsdk:"model_path"`
	ModelJSON         types.String `tfsdk:"model_json"`
	ArchitectureUID   types.String `tfsdk:"architecture_uid"`
	Renderer          types.String `tfsdk:"renderer"`
	Format            types.String `tfsdk:"format"`
	ViewType          types.String `tfsdk:"view_type"`
	Title             types.String `tfsdk:"title"`
	Direction         types.String `tfsdk:"direction"`
	OutputPath        types.String `tfsdk:"output_path"`
	ImageFormat       types.String `tfsdk:"image_format"`
	ElementCount      types.Int64  `tfsdk:"element_count"`
	RelationshipCount types.Int64  `tfsdk:"relationship_count"`
}

func (r *DiagramResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

func (r *DiagramResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	replace := []planmodifier.String{stringplanmodifier.RequiresReplace()}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders an architecture model and writes the diagram to a file. PlantUML outputs can be turned into SVG or PNG images through the configured PlantUML server.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Resource identifier",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"model_path": schema.StringAttribute{
				MarkdownDescription: "Path to an architecture model file (`.json`, `.yaml`, `.yml` or `.hcl`).",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.ExactlyOneOf(path.MatchRoot("model_path"), path.MatchRoot("model_json"), path.MatchRoot("architecture_uid")),
				},
			},
			"model_json": schema.StringAttribute{
				MarkdownDescription: "Architecture model as a JSON document.",
				Optional:            true,
			},
			"architecture_uid": schema.StringAttribute{
				MarkdownDescription: "Uid of an architecture stored in the backend configured by `api_base_url`.",
				Optional:            true,
			},
			"renderer": schema.StringAttribute{
				MarkdownDescription: "Renderer name: 'graph', 'plantuml', 'structurizr' or 'likec4'. Default is 'graph'.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.OneOf(rendererNames()...),
				},
			},
			"format": schema.StringAttribute{
				MarkdownDescription: "Renderer specific output format. Defaults to the renderer's first format.",
				Optional:            true,
				Computed:            true,
			},
			"view_type": schema.StringAttribute{
				MarkdownDescription: "PlantUML C4 view: 'context', 'container' or 'component'.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.OneOf("context", "container", "component"),
				},
			},
			"title": schema.StringAttribute{
				MarkdownDescription: "Title for the diagram.",
				Optional:            true,
			},
			"direction": schema.StringAttribute{
				MarkdownDescription: "Diagram direction: 'TB', 'LR', 'BT' or 'RL'. Default is 'TB'.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.OneOf("TB", "LR", "BT", "RL"),
				},
			},
			"output_path": schema.StringAttribute{
				MarkdownDescription: "Path where the diagram will be saved.",
				Required:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"image_format": schema.StringAttribute{
				MarkdownDescription: "Render PlantUML output to an image through the PlantUML server: 'svg' or 'png'.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.OneOf(plantuml.FormatSVG, plantuml.FormatPNG),
				},
			},
			"element_count": schema.Int64Attribute{
				MarkdownDescription: "Number of elements in the architecture.",
				Computed:            true,
			},
			"relationship_count": schema.Int64Attribute{
				MarkdownDescription: "Number of relationships in the architecture.",
				Computed:            true,
			},
		},
	}
}

func (r *DiagramResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	pd, ok := req.ProviderData.(*providerData)
	if !ok {
		resp.Diagnostics.AddError("Unexpected provider data", fmt.Sprintf("expected *providerData, got %T", req.ProviderData))
		return
	}
	r.data = pd
}

func (r *DiagramResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := r.generate(ctx, &data); err != nil {
		resp.Diagnostics.AddError("Failed to generate diagram", err.Error())
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Check if output file still exists
	if _, err := os.Stat(data.OutputPath.ValueString()); errors.Is(err, os.ErrNotExist) {
		tflog.Info(ctx, "diagram file removed outside terraform", map[string]any{"output_path": data.OutputPath.ValueString()})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := r.generate(ctx, &data); err != nil {
		resp.Diagnostics.AddError("Failed to generate diagram", err.Error())
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := os.Remove(data.OutputPath.ValueString()); err != nil && !errors.Is(err, os.ErrNotExist) {
		resp.Diagnostics.AddError("Failed to delete diagram", err.Error())
	}
}

func (r *DiagramResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	resource.ImportStatePassthroughID(ctx, path.Root("id"), req, resp)
}

// generate renders the diagram described by data and fills the computed
// attributes.
func (r *DiagramResource) generate(ctx context.Context, data *DiagramResourceModel) error {
	pd, err := dataFrom(ctx, r.data)
	if err != nil {
		return err
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
		OutputPath:      data.OutputPath.ValueString(),
		ImageFormat:     data.ImageFormat.ValueString(),
	})
	if err != nil {
		return err
	}

	data.Format = types.StringValue(result.Output.Format)
	data.ElementCount = types.Int64Value(result.ElementCount)
	data.RelationshipCount = types.Int64Value(result.RelationshipCount)
	data.ID = types.StringValue(data.OutputPath.ValueString())
	return nil
}
