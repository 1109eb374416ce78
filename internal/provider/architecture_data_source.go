package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/ankek/terraform-provider-archstudio/internal/diagram"
	"github.com/ankek/terraform-provider-archstudio/internal/logger"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/validation"
)

var (
	_ datasource.DataSource              = &ArchitectureDataSource{}
	_ datasource.DataSourceWithConfigure = &ArchitectureDataSource{}
)

// ArchitectureDataSource reports counts, validation and graph statistics
// for an architecture without rendering it.
type ArchitectureDataSource struct {
	data *providerData
}

func NewArchitectureDataSource() datasource.DataSource {
	return &ArchitectureDataSource{}
}

// ArchitectureDataSourceModel describes the data source data model.
type ArchitectureDataSourceModel struct {
	ID                types.String  `tfsdk:"id"`
	ModelPath         types.String  `tfsdk:"model_path"`
	ModelJSON         types.String  `tfsdk:"model_json"`
	ArchitectureUID   types.String  `tfsdk:"architecture_uid"`
	Name              types.String  `tfsdk:"name"`
	ElementCount      types.Int64   `tfsdk:"element_count"`
	RelationshipCount types.Int64   `tfsdk:"relationship_count"`
	BusinessCount     types.Int64   `tfsdk:"business_count"`
	ApplicationCount  types.Int64   `tfsdk:"application_count"`
	TechnologyCount   types.Int64   `tfsdk:"technology_count"`
	IsValid           types.Bool    `tfsdk:"is_valid"`
	Errors            types.List    `tfsdk:"errors"`
	Warnings          types.List    `tfsdk:"warnings"`
	Density           types.Float64 `tfsdk:"density"`
	Complexity        types.String  `tfsdk:"complexity"`
}

func (d *ArchitectureDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_architecture"
}

func (d *ArchitectureDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	attrs := modelSourceAttributes()
	attrs["id"] = schema.StringAttribute{
		Computed:            true,
		MarkdownDescription: "Architecture uid after normalization",
	}
	attrs["name"] = schema.StringAttribute{
		Computed:            true,
		MarkdownDescription: "Architecture name after normalization",
	}
	for name, desc := range map[string]string{
		"element_count":      "Total number of elements across all layers.",
		"relationship_count": "Number of relationships.",
		"business_count":     "Number of business layer elements.",
		"application_count":  "Number of application layer elements.",
		"technology_count":   "Number of technology layer elements.",
	} {
		attrs[name] = schema.Int64Attribute{Computed: true, MarkdownDescription: desc}
	}
	attrs["is_valid"] = schema.BoolAttribute{
		Computed:            true,
		MarkdownDescription: "Whether the model passes validation.",
	}
	attrs["errors"] = schema.ListAttribute{
		ElementType:         types.StringType,
		Computed:            true,
		MarkdownDescription: "Validation error messages.",
	}
	attrs["warnings"] = schema.ListAttribute{
		ElementType:         types.StringType,
		Computed:            true,
		MarkdownDescription: "Validation warning messages.",
	}
	attrs["density"] = schema.Float64Attribute{
		Computed:            true,
		MarkdownDescription: "Graph density: edges / (nodes * (nodes - 1)).",
	}
	attrs["complexity"] = schema.StringAttribute{
		Computed:            true,
		MarkdownDescription: "Complexity label: 'low', 'medium' or 'high'.",
	}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Analyzes an architecture model: element counts, validation result and graph statistics.",
		Attributes:          attrs,
	}
}

func (d *ArchitectureDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *ArchitectureDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data ArchitectureDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	pd, err := dataFrom(ctx, d.data)
	if err != nil {
		resp.Diagnostics.AddError("Failed to configure provider", err.Error())
		return
	}

	cfg := DiagramConfig{
		ModelPath:       data.ModelPath.ValueString(),
		ModelJSON:       data.ModelJSON.ValueString(),
		ArchitectureUID: data.ArchitectureUID.ValueString(),
	}
	if cfg.ModelPath != "" {
		if err := validation.ValidateModelPath(cfg.ModelPath); err != nil {
			resp.Diagnostics.AddError("Invalid model path", err.Error())
			return
		}
	}
	arch, err := modelLoader{remote: pd.remote}.LoadArchitecture(ctx, cfg)
	if err != nil {
		resp.Diagnostics.AddError("Failed to load architecture", err.Error())
		return
	}

	report := diagram.NewService(nil, logger.ForTerraform(ctx)).Inspect(arch)
	resp.Diagnostics.Append(setInspection(ctx, &data, report)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func setInspection(ctx context.Context, data *ArchitectureDataSourceModel, report diagram.Inspection) (diags diag.Diagnostics) {
	data.ID = types.StringValue(report.Model.UID)
	data.Name = types.StringValue(report.Model.Name)
	data.ElementCount = types.Int64Value(int64(report.Summary.TotalElements))
	data.RelationshipCount = types.Int64Value(int64(report.Summary.Relationships))
	data.BusinessCount = types.Int64Value(int64(report.Summary.Business.Total()))
	data.ApplicationCount = types.Int64Value(int64(report.Summary.Application.Total()))
	data.TechnologyCount = types.Int64Value(int64(report.Summary.Technology.Total()))
	data.IsValid = types.BoolValue(report.Validation.IsValid)
	data.Density = types.Float64Value(report.Graph.Density)
	data.Complexity = types.StringValue(report.Graph.Complexity)

	var d diag.Diagnostics
	data.Errors, d = types.ListValueFrom(ctx, types.StringType, validationIssues(report.Validation.Errors))
	diags.Append(d...)
	data.Warnings, d = types.ListValueFrom(ctx, types.StringType, validationIssues(report.Validation.Warnings))
	diags.Append(d...)
	return diags
}

// validationIssues flattens issues into "CODE: message" strings.
func validationIssues(issues []model.ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code+": "+i.Message)
	}
	return out
}
