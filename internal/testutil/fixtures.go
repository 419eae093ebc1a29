package testutil

// Canned module manifests mirroring the kind of analytics modules the
// engine exists to orchestrate. Tests share them instead of re-inventing
// slightly different toy modules per file.

// ModuleFormatVideos transcodes a video to a target frame rate, size, and
// scale. Every parameter defaults to -1, meaning "leave unchanged".
const ModuleFormatVideos = `
module "format_videos" {
  description = "Transcodes videos to a target frame rate, size, and encoding."
  executable  = "format_videos"

  input "video_path" {
    type     = "video_file"
    required = true
  }

  output "output_video_path" {
    type = "video_file"
  }

  parameter "fps" {
    type    = "number"
    default = -1
  }

  parameter "size" {
    type    = "array"
    default = [-1, -1]
  }

  parameter "scale" {
    type    = "number"
    default = -1
  }
}
`

// ModuleVisualizeLabels renders a labels document onto its source video.
const ModuleVisualizeLabels = `
module "visualize_labels" {
  description = "Renders video labels onto the source video."
  executable  = "visualize_labels"

  input "video_path" {
    type     = "video_file"
    required = true
  }

  input "video_labels_path" {
    type     = "video_labels"
    required = true
  }

  output "output_path" {
    type = "video_file"
  }

  parameter "annotation_config" {
    type = "object"
  }
}
`

// ModuleApplyImageClassifier runs a published classifier over a directory
// of images.
const ModuleApplyImageClassifier = `
module "apply_image_classifier" {
  description = "Classifies a directory of images with a published model."
  executable  = "apply_image_classifier"

  input "images_dir" {
    type     = "image_file_directory"
    required = true
  }

  output "labels_path" {
    type = "image_set_labels"
  }

  parameter "classifier" {
    type     = "model"
    required = true
  }

  parameter "confidence_threshold" {
    type    = "number"
    default = 0.5
  }
}
`

// PipelineTranscode chains format_videos into visualize_labels: the
// formatter's frame rate is tunable per job, its scale is fixed by the
// pipeline author.
const PipelineTranscode = `
pipeline "transcode" {
  description = "Transcode a raw video and render its labels."
  inputs      = ["raw_video", "labels"]
  outputs     = ["annotated_video"]

  module "formatter" {
    uses               = "format_videos"
    tunable_parameters = ["fps"]

    set_parameters {
      scale = 0.5
    }
  }

  module "visualizer" {
    uses = "visualize_labels"
  }

  connection {
    source = "INPUT.raw_video"
    sink   = "formatter.video_path"
  }

  connection {
    source = "INPUT.labels"
    sink   = "visualizer.video_labels_path"
  }

  connection {
    source = "formatter.output_video_path"
    sink   = "visualizer.video_path"
  }

  connection {
    source = "visualizer.output_path"
    sink   = "OUTPUT.annotated_video"
  }
}
`
